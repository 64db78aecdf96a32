package entity

import "time"

// Item ítem de catálogo. El motor de inventario solo necesita su existencia;
// el CRUD de catálogo vive en otro sistema.
type Item struct {
	ID        string
	SKU       string
	Name      string
	CreatedAt time.Time
}

// Warehouse bodega física o lógica. Referenciada solo por identificador.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
}
