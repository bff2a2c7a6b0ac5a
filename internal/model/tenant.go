package model

// Tenant represents a customer account as stored in the `empresas`
// table. Tenants are created out of band; no API creates them. A
// tenant owns tags, users and, transitively, tap events.
type Tenant struct {
	ID   uint64 // empresas.id
	Name string // empresas.nombre
}
