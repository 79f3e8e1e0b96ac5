// Package csvimport lee los CSV que exporta el obrador (catálogo y partes de producción).
// Separador ';' y, según el equipo, codificación Windows-1252 o UTF-8.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// Codificaciones soportadas.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// LotRow una línea del parte de producción.
type LotRow struct {
	Line      int
	ProductID string
	Request   dto.RecordProductionRequest
}

// NewReader devuelve un lector CSV ';' que decodifica desde encoding. Los comentarios empiezan con '#'.
func NewReader(r io.Reader, encoding string) (*csv.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8:
	case EncodingWindows1252, "cp1252":
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	default:
		return nil, fmt.Errorf("csvimport: codificación no soportada %q", encoding)
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr, nil
}

// ReadProducts lee id;sku;nombre;unidad. La primera fila es cabecera.
func ReadProducts(r io.Reader, encoding string) ([]entity.Product, error) {
	records, err := readAll(r, encoding)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Product, 0, len(records))
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, fmt.Errorf("csvimport: línea %d: se esperan al menos 3 columnas", i+2)
		}
		p := entity.Product{
			ID:          strings.TrimSpace(rec[0]),
			SKU:         strings.TrimSpace(rec[1]),
			Name:        strings.TrimSpace(rec[2]),
			UnitMeasure: "unidad",
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			p.UnitMeasure = strings.TrimSpace(rec[3])
		}
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("csvimport: línea %d: id y nombre son obligatorios", i+2)
		}
		out = append(out, p)
	}
	return out, nil
}

// ReadLots lee producto;fecha_produccion;cantidad[;caducidad[;motivo]]. La primera fila es cabecera.
// La cantidad admite coma decimal ("12,5").
func ReadLots(r io.Reader, encoding string) ([]LotRow, error) {
	records, err := readAll(r, encoding)
	if err != nil {
		return nil, err
	}
	out := make([]LotRow, 0, len(records))
	for i, rec := range records {
		line := i + 2
		if len(rec) < 3 {
			return nil, fmt.Errorf("csvimport: línea %d: se esperan al menos 3 columnas", line)
		}
		qty, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[2]), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("csvimport: línea %d: cantidad %q: %w", line, rec[2], err)
		}
		row := LotRow{
			Line:      line,
			ProductID: strings.TrimSpace(rec[0]),
			Request: dto.RecordProductionRequest{
				ProductionDate: strings.TrimSpace(rec[1]),
				Quantity:       qty,
			},
		}
		if len(rec) > 3 {
			row.Request.ExpiryDate = strings.TrimSpace(rec[3])
		}
		if len(rec) > 4 {
			row.Request.Reason = strings.TrimSpace(rec[4])
		}
		out = append(out, row)
	}
	return out, nil
}

func readAll(r io.Reader, encoding string) ([][]string, error) {
	cr, err := NewReader(r, encoding)
	if err != nil {
		return nil, err
	}
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return [][]string{}, nil
		}
		return nil, fmt.Errorf("csvimport: cabecera: %w", err)
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvimport: %w", err)
	}
	return records, nil
}
