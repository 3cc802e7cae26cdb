package dispute

import "strings"

// MissingKey is the natural key of a record carrying neither a transaction id nor an
// authorization code.
const MissingKey = "sin_id"

// NaturalKeySQL is the SQL spelling of ResolveNaturalKey over the aclaraciones table.
// Reads and writes of the conversion batch both go through it so a row read under one
// key is always written back under the same key.
const NaturalKeySQL = `CASE WHEN NULLIF(TRIM(id_de_transaccion), '') IS NOT NULL
	THEN TRIM(id_de_transaccion)
	ELSE COALESCE(NULLIF(TRIM(autorizacion), ''), 'sin_id') END`

// ResolveNaturalKey derives the logical identity of a dispute row: the transaction id,
// else the authorization code, else MissingKey.
func ResolveNaturalKey(transactionID, authorizationCode string) string {
	if id := strings.TrimSpace(transactionID); id != "" {
		return id
	}
	if auth := strings.TrimSpace(authorizationCode); auth != "" {
		return auth
	}
	return MissingKey
}

// NaturalKey returns the natural key of r.
func (r *Record) NaturalKey() string {
	return ResolveNaturalKey(r.TransactionID, r.AuthorizationCode)
}
