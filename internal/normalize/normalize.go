// internal/normalize/normalize.go
package normalize

// Raw is a decoded upstream record of unknown shape. Upstream endpoints
// disagree on field naming, so every lookup goes through the ordered
// candidate lists below instead of ad-hoc key checks in business logic.
type Raw = map[string]any

// UnknownID marks a record whose identity could not be resolved. Callers
// must treat it as a data-quality signal, not a real identity.
const UnknownID = "unknown-id"

var (
	idCandidates = []string{"id", "customer_id", "customerId", "ID", "Id"}

	nameCandidates = []string{
		"name", "customer_name", "customerName",
		"full_name", "fullName", "Name",
		"first_name", "firstName", "last_name", "lastName",
		"display_name", "displayName",
	}

	customerRefCandidates = []string{"customer_id", "customerId", "customer_ref", "customerRef"}
	tripRefCandidates     = []string{"trip_id", "tripId", "trip_ref", "tripRef"}
)

// ID resolves the canonical id of a record. Candidates are tried in
// order, then one level into a nested "customer" object, then UnknownID.
func ID(r Raw) string {
	if v := FirstString(r, idCandidates...); v != "" {
		return v
	}
	if nested, ok := Child(r, "customer"); ok {
		if v := FirstString(nested, idCandidates...); v != "" {
			return v
		}
	}
	return UnknownID
}

// Name resolves the canonical display name of a record. Candidates are
// tried in order, then one level into a nested "customer" object. When
// nothing usable remains the name is synthesized from the id so that
// placeholder identities stay visibly distinguishable.
func Name(r Raw) string {
	if v := FirstString(r, nameCandidates...); v != "" {
		return v
	}
	if nested, ok := Child(r, "customer"); ok {
		if v := FirstString(nested, nameCandidates...); v != "" {
			return v
		}
	}
	return "Customer " + ID(r)
}

// Canonicalize returns a copy of r with guaranteed "id" and "name"
// fields. It is a pure transform: the input map is never mutated, other
// fields pass through untouched, and canonicalizing an already-canonical
// record yields an identical record.
func Canonicalize(r Raw) Raw {
	if r == nil {
		return Raw{"id": UnknownID, "name": "Customer " + UnknownID}
	}
	out := make(Raw, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	out["id"] = ID(r)
	out["name"] = Name(r)
	return out
}

// CustomerRef resolves which customer a rolling or buy-in/out record
// belongs to. Flat reference fields are tried first, then an embedded
// customer value that may be either a plain id or a nested object.
// Unresolvable references collapse to UnknownID, mirroring ID, so that
// joins against placeholder identities stay consistent.
func CustomerRef(r Raw) string {
	if v := FirstString(r, customerRefCandidates...); v != "" {
		return v
	}
	if v, ok := r["customer"]; ok {
		switch c := v.(type) {
		case map[string]any:
			return ID(c)
		default:
			if s := Str(c); s != "" {
				return s
			}
		}
	}
	return UnknownID
}

// TripRef resolves which trip a record belongs to, with the same
// fallback shape as CustomerRef.
func TripRef(r Raw) string {
	if v := FirstString(r, tripRefCandidates...); v != "" {
		return v
	}
	if v, ok := r["trip"]; ok {
		switch t := v.(type) {
		case map[string]any:
			if s := FirstString(t, idCandidates...); s != "" {
				return s
			}
		default:
			if s := Str(t); s != "" {
				return s
			}
		}
	}
	return UnknownID
}
