package main

import (
	"fmt"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/backend/excel"
	"github.com/geoirb/sheetbind/internal/backend/tealeg"
)

const (
	backendExcel  = "excel"
	backendTealeg = "tealeg"
)

func (a *app) openReader(file string) (backend.Reader, error) {
	switch a.backend {
	case backendExcel:
		return excel.Open(file)
	case backendTealeg:
		return tealeg.Open(file, tealeg.WithDiskCellStore())
	}
	return nil, fmt.Errorf("unknown backend %q", a.backend)
}

func (a *app) newWorkbook() (backend.Workbook, error) {
	switch a.backend {
	case backendExcel:
		return excel.NewWorkbook(), nil
	case backendTealeg:
		return tealeg.NewWorkbook(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", a.backend)
}
