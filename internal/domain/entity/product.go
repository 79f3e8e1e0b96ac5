package entity

// Product vista del catálogo que necesita el flujo de reposición (id, nombre y unidad).
// El catálogo lo administra otro servicio; aquí solo se lee.
type Product struct {
	ID          string
	SKU         string
	Name        string
	UnitMeasure string
}
