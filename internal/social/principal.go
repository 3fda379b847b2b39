package social

// Principal es el resultado normalizado de una validación social.
// Es inmutable: solo NewAuthenticated produce un principal autenticado.
type Principal struct {
	subjectID     string
	provider      string
	authenticated bool
}

// NewAuthenticated crea un principal autenticado para el subject del provider.
func NewAuthenticated(provider, subjectID string) *Principal {
	return &Principal{
		subjectID:     subjectID,
		provider:      provider,
		authenticated: true,
	}
}

// SubjectID es el identificador estable del usuario dentro del provider
// (sub de Google, user_id de Facebook, id de LinkedIn).
func (p *Principal) SubjectID() string { return p.subjectID }

// Provider es el tipo de provider que produjo el principal.
func (p *Principal) Provider() string { return p.provider }

// Authenticated es true solo si el validator pudo establecer confianza en el token.
func (p *Principal) Authenticated() bool { return p != nil && p.authenticated && p.subjectID != "" }

// String no expone nada sensible; útil para logs.
func (p *Principal) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.provider + "|" + p.subjectID
}
