package view

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/number"
)

// Formatter renders numbers, money, dates and interface strings for one
// locale. Templates reach it as .Fmt.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

var messages = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	es := map[string]string{
		"Search":                       "Buscar",
		"Bills":                        "Proyectos de ley",
		"Exports":                      "Exportaciones",
		"Scrapers":                     "Recolectores",
		"Load More":                    "Cargar más",
		"Loading...":                   "Cargando...",
		"Previous":                     "Anterior",
		"Next":                         "Siguiente",
		"Page %d":                      "Página %d",
		"No results found for '%s'":    "No se encontraron resultados para '%s'",
		"No records":                   "Sin registros",
		"Download CSV":                 "Descargar CSV",
		"Download XLSX":                "Descargar XLSX",
		"Some sections failed to load": "Algunas secciones no se pudieron cargar",
		"Still loading, try again":     "Todavía cargando, intente de nuevo",
		"Invalid page":                 "Página no válida",
		"Start":                        "Iniciar",
		"Stop":                         "Detener",
		"Details":                      "Detalles",
		"Votes":                        "Votos",
		"Donations":                    "Donaciones",
		"Transactions":                 "Transacciones",
		"Reports":                      "Informes",
		"Top Donors":                   "Principales donantes",
		"Sessions":                     "Sesiones",
		"Sponsors":                     "Patrocinadores",
		"Roll Call":                    "Votación nominal",
	}
	for key, msg := range es {
		_ = b.SetString(language.Spanish, key, msg)
	}
	return b
}

func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Lang is the BCP 47 tag for the html lang attribute.
func (f *Formatter) Lang() string {
	return f.tag.String()
}

// T translates an interface string; args are applied Printf-style.
func (f *Formatter) T(key string, args ...any) string {
	return f.printer.Sprintf(key, args...)
}

// Money formats a dollar amount with grouping and two decimals.
func (f *Formatter) Money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	v, _ := d.Round(2).Float64()
	return sign + "$" + f.printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func (f *Formatter) Number(n int64) string {
	return f.printer.Sprint(number.Decimal(n))
}

// Date formats a calendar date; the zero time renders as "N/A".
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	if base, _ := f.tag.Base(); base.String() == "es" {
		return t.Format("02/01/2006")
	}
	return t.Format("Jan 2, 2006")
}

// ISODate is the machine form used in form fields and data attributes.
func (f *Formatter) ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func (f *Formatter) Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04:05")
}
