package entity

// Roles que llegan en el token del emisor de identidad.
const (
	RoleAdmin     = "admin"
	RoleStore     = "tienda"     // personal de tienda, pide reposición
	RolePlant     = "obrador"    // personal del obrador, acepta y prepara
	RoleDeliverer = "repartidor" // reparto, confirma entregas
)

// Actor identidad verificada de quien ejecuta una operación.
// StoreID solo aplica a RoleStore.
type Actor struct {
	UserID  string
	StoreID string
	Role    string
}

// IsStore indica si el actor opera en nombre de una tienda.
func (a Actor) IsStore() bool { return a.Role == RoleStore }
