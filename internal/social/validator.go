// Package social implementa el grant "social": intercambia un token emitido por un
// provider externo (Google, Facebook, LinkedIn) por un principal normalizado que luego
// se envuelve en un access token propio.
//
// # Flujo
//
//	params -> ExtractGrant -> Dispatcher.Authenticate -> Validator.ValidateLogin -> Principal
//	       -> CredentialIssuer.Issue -> Credential
//
// Cada Validator implementa el protocolo de un provider (verificación JWT, introspección
// en dos pasos o intercambio de authorization code) y devuelve un Principal autenticado
// o un *Error clasificado. El Dispatcher no conoce los tipos concretos.
package social

import "context"

// Validator valida un token crudo contra un provider de identidad.
//
// Contrato: ValidateLogin devuelve un principal autenticado o un *Error de tipo
// InvalidCredential / ValidatorUnavailable. Nunca un principal no autenticado con err nil.
// Las implementaciones solo guardan configuración de lectura; no hay estado por request.
type Validator interface {
	// Type es el nombre del provider ("google", "facebook", "linkedin").
	Type() string

	// IsApplicable indica si el validator atiende el tipo pedido (match exacto).
	IsApplicable(providerType string) bool

	// ValidateLogin ejecuta el protocolo del provider.
	ValidateLogin(ctx context.Context, rawToken string) (*Principal, error)
}

// TypeMatcher implementa IsApplicable/Type para validators que atienden un único tipo.
// Se embebe en cada validator concreto.
type TypeMatcher string

// Type devuelve el nombre del provider.
func (t TypeMatcher) Type() string { return string(t) }

// IsApplicable es case-sensitive: "Google" no matchea "google".
func (t TypeMatcher) IsApplicable(providerType string) bool {
	return providerType != "" && string(t) == providerType
}
