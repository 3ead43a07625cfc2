package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"civicpulse/internal/config"
	"civicpulse/internal/db"
)

type referenceData struct {
	Counties []struct {
		Code           string `json:"code"`
		Name           string `json:"name"`
		Constituencies []struct {
			Name  string   `json:"name"`
			Wards []string `json:"wards"`
		} `json:"constituencies"`
	} `json:"counties"`
	Positions []struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	} `json:"positions"`
	Parties []struct {
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
	} `json:"parties"`
	IssueCategories []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"issue_categories"`
}

func main() {
	filePath := flag.String("file", "reference.json", "path to reference data json")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	data, err := readReference(*filePath)
	if err != nil {
		log.Fatalf("failed to read reference data: %v", err)
	}

	counties, constituencies, wards := 0, 0, 0
	for _, c := range data.Counties {
		county := db.County{Code: c.Code, Name: c.Name}
		if err := conn.FirstOrCreate(&county, db.County{Name: c.Name}).Error; err != nil {
			log.Fatalf("failed to upsert county %q: %v", c.Name, err)
		}
		counties++
		for _, cons := range c.Constituencies {
			constituency := db.Constituency{Name: cons.Name, CountyID: county.ID}
			if err := conn.FirstOrCreate(&constituency, db.Constituency{Name: cons.Name, CountyID: county.ID}).Error; err != nil {
				log.Fatalf("failed to upsert constituency %q: %v", cons.Name, err)
			}
			constituencies++
			for _, w := range cons.Wards {
				ward := db.Ward{Name: w, ConstituencyID: constituency.ID}
				if err := conn.FirstOrCreate(&ward, db.Ward{Name: w, ConstituencyID: constituency.ID}).Error; err != nil {
					log.Fatalf("failed to upsert ward %q: %v", w, err)
				}
				wards++
			}
		}
	}

	for _, p := range data.Positions {
		position := db.Position{Name: p.Name, Level: p.Level}
		if err := conn.FirstOrCreate(&position, db.Position{Name: p.Name}).Error; err != nil {
			log.Fatalf("failed to upsert position %q: %v", p.Name, err)
		}
	}
	for _, p := range data.Parties {
		party := db.Party{Name: p.Name, Abbreviation: p.Abbreviation}
		if err := conn.FirstOrCreate(&party, db.Party{Name: p.Name}).Error; err != nil {
			log.Fatalf("failed to upsert party %q: %v", p.Name, err)
		}
	}
	for _, cat := range data.IssueCategories {
		category := db.IssueCategory{Name: cat.Name, Description: cat.Description, Icon: cat.Icon}
		if err := conn.FirstOrCreate(&category, db.IssueCategory{Name: cat.Name}).Error; err != nil {
			log.Fatalf("failed to upsert issue category %q: %v", cat.Name, err)
		}
	}

	log.Printf("loaded %d counties, %d constituencies, %d wards, %d positions, %d parties, %d issue categories",
		counties, constituencies, wards, len(data.Positions), len(data.Parties), len(data.IssueCategories))
}

func readReference(path string) (referenceData, error) {
	var data referenceData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, err
	}
	return data, nil
}
