package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/geoirb/sheetbind"
)

var (
	templateFile = "example/template.xlsx"
	resultFile   = "example/result.xlsx"

	//go:embed payload.json
	data []byte
)

func main() {
	templater := sheetbind.NewTemplater()

	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		panic(err)
	}

	r, warnings, err := templater.FillIn(context.Background(), templateFile, payload)
	if err != nil {
		panic(err)
	}
	for _, w := range warnings {
		fmt.Println("warning:", w)
	}

	file, err := os.Create(resultFile)
	if err != nil {
		panic(err)
	}
	defer file.Close()
	if _, err = io.Copy(file, r); err != nil {
		panic(err)
	}
}
