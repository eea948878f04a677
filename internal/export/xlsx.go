// Package export writes qualified leads out to spreadsheet and CRM targets.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/finclip/prospector-cli/internal/model"
)

var xlsxHeader = []string{
	"Nome", "CNPJ", "Telefone", "Email", "Site",
	"Cidade", "UF", "Contato", "Cargo", "Avaliação", "Avaliações", "Status",
}

// WriteXLSX writes the leads to a single-sheet spreadsheet at path.
func WriteXLSX(path string, leads []model.Lead) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range xlsxHeader {
		header.AddCell().SetString(col)
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		row.AddCell().SetString(lead.Name)
		row.AddCell().SetString(lead.TaxID)
		row.AddCell().SetString(lead.Phone)
		row.AddCell().SetString(lead.Email)
		row.AddCell().SetString(lead.Website)
		row.AddCell().SetString(lead.City)
		row.AddCell().SetString(lead.State)
		row.AddCell().SetString(lead.ContactName)
		row.AddCell().SetString(lead.ContactRole)
		row.AddCell().SetFloat(lead.Rating)
		row.AddCell().SetInt(lead.ReviewCount)
		row.AddCell().SetString(string(lead.Status))
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	zap.L().Info("export: spreadsheet written",
		zap.String("path", path),
		zap.Int("leads", len(leads)),
	)
	return nil
}
