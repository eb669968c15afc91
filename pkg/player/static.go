package player

type NewStaticPlayerOptions struct {
	NewPlayerOptions
}

// NewStaticPlayer creates a scripted character. Its actions live in
// memory and are never replicated.
func NewStaticPlayer(opts *NewStaticPlayerOptions) *Entity {
	if opts == nil {
		opts = &NewStaticPlayerOptions{}
	}
	e := newEntity(KindStatic, &opts.NewPlayerOptions)
	e.ledger = &plainLedger{e: e}
	e.interpolation = newImmediateInterpolation(e)
	return e
}
