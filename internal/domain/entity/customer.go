package entity

import (
	"encoding/json"
	"time"

	"workorder/pkg/docpath"
)

// Customer is stored and returned verbatim. Fields other than the typed ones
// are kept in Extra and flattened back on output.
type Customer struct {
	ID        string         `bson:"_id"`
	Name      string         `bson:"name"`
	Phone     string         `bson:"phone"`
	CreatedAt time.Time      `bson:"createdAt"`
	Extra     map[string]any `bson:",inline"`
}

var customerKeys = map[string]struct{}{"id": {}, "_id": {}, "name": {}, "phone": {}, "createdAt": {}}

func (c Customer) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		out[k] = docpath.Plain(v)
	}
	out["id"] = c.ID
	out["name"] = c.Name
	out["phone"] = c.Phone
	out["createdAt"] = c.CreatedAt
	return json.Marshal(out)
}

func (c *Customer) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if c.Name, err = optionalString(raw, "name"); err != nil {
		return err
	}
	if c.Phone, err = optionalString(raw, "phone"); err != nil {
		return err
	}
	for k, v := range raw {
		if _, typed := customerKeys[k]; typed {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}
		c.Extra[k] = v
	}
	return nil
}

// optionalString reads key as a string. Absent and null values are empty;
// any other type is rejected rather than dropped.
func optionalString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", Validation("%s must be a string", key)
	}
	return s, nil
}
