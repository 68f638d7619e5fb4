package entity

// Op es la forma remota de una acción (qué endpoint la materializa).
type Op string

const (
	OpStatus    Op = "status"
	OpDelete    Op = "delete"
	OpArchive   Op = "archive"
	OpUnarchive Op = "unarchive"
	OpMatch     Op = "match"
	OpApprove   Op = "approve"
)

// Command es la intención del operador sobre una entidad.
type Command struct {
	Action string

	// Target solo aplica a acciones de override (estado destino explícito).
	Target string

	// MatchID para acciones de vinculación (reports).
	MatchID string

	Reason string
	Notes  string
}

// Request es lo que el Remote Gateway envía al backend para una entidad.
type Request struct {
	Op      Op
	Status  string
	MatchID string
	Reason  string
	Notes   string
}
