package stac

// Reason identifies why an item failed validation.
type Reason string

const (
	ReasonMissingID         Reason = "missing_id"
	ReasonMissingCollection Reason = "missing_collection"
	ReasonWrongType         Reason = "wrong_type"
)

// ValidationError reports a single enumerated validation failure.
type ValidationError struct {
	Reason Reason
}

func (e ValidationError) Error() string {
	return "invalid item: " + string(e.Reason)
}

// Validate checks the fields the loader depends on: id and collection
// identify the row being upserted, and only Feature payloads are items.
// Deeper shape errors are left to the catalog store.
func (i Item) Validate() error {
	if i.Type != "" && i.Type != "Feature" {
		return ValidationError{Reason: ReasonWrongType}
	}
	if i.ID == "" {
		return ValidationError{Reason: ReasonMissingID}
	}
	if i.Collection == "" {
		return ValidationError{Reason: ReasonMissingCollection}
	}
	return nil
}
