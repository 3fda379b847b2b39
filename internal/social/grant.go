package social

import (
	"sort"
	"strings"
)

// Nombres de parámetros del grant social.
const (
	GrantType = "social"

	ParamType  = "type"
	ParamToken = "token"
)

// GrantRequest es el par (type, token) extraído del request, más el resto de parámetros
// ya saneados (sin token) para audit y para construir el request de emisión.
type GrantRequest struct {
	ProviderType string
	Token        string
	Parameters   map[string]string
}

// ExtractGrant valida y extrae type/token de la bolsa de parámetros.
// No modifica params; Parameters es una copia sin "token".
// Falla antes de cualquier llamada de red si falta alguno de los dos. Un valor hecho solo
// de espacios cuenta como ausente; uno con espacios alrededor se pasa tal cual, sin trim.
func ExtractGrant(params map[string]string) (GrantRequest, error) {
	providerType := params[ParamType]
	if strings.TrimSpace(providerType) == "" {
		return GrantRequest{}, ErrMissingProviderType
	}
	token := params[ParamToken]
	if strings.TrimSpace(token) == "" {
		return GrantRequest{}, ErrMissingCredential
	}

	return GrantRequest{
		ProviderType: providerType,
		Token:        token,
		Parameters:   Sanitize(params),
	}, nil
}

// Sanitize devuelve una copia de params sin el token crudo.
func Sanitize(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if k == ParamToken {
			continue
		}
		out[k] = v
	}
	return out
}

// String omite el token; GrantRequest puede terminar en logs por accidente.
func (g GrantRequest) String() string {
	keys := make([]string, 0, len(g.Parameters))
	for k := range g.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "social grant type=" + g.ProviderType + " params=[" + strings.Join(keys, ",") + "]"
}
