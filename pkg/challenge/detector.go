package challenge

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultMaxDepth bounds how far below the top-level object a challenge is searched for.
	DefaultMaxDepth = 4
	// DefaultMaxArrayItems is how many leading elements of an array are inspected.
	DefaultMaxArrayItems = 3
)

// Detector scans decoded JSON payloads for embedded challenges.
type Detector struct {
	Fields        Fields
	MaxDepth      int
	MaxArrayItems int
}

// NewDetector returns a Detector using the given field tables and default limits.
func NewDetector(fields Fields) *Detector {
	return &Detector{
		Fields:        fields,
		MaxDepth:      DefaultMaxDepth,
		MaxArrayItems: DefaultMaxArrayItems,
	}
}

// Detect returns the first challenge found in payload, or nil. payload is the
// result of decoding a JSON body into interface{}.
func (d *Detector) Detect(payload interface{}) *Challenge {
	switch root := payload.(type) {
	case map[string]interface{}:
		return d.scan(root, payload, 0)
	case []interface{}:
		return d.scanArray(root, payload, 1)
	}
	return nil
}

// DetectJSON decodes body and runs Detect. Bodies that are not JSON never carry a challenge.
func (d *Detector) DetectJSON(body []byte) *Challenge {
	if len(body) == 0 {
		return nil
	}
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return d.Detect(payload)
}

func (d *Detector) scan(obj map[string]interface{}, raw interface{}, depth int) *Challenge {
	if depth > d.MaxDepth {
		return nil
	}

	for _, key := range d.Fields.ChallengeKeys {
		v, ok := obj[key]
		if !ok || isEmpty(v) {
			continue
		}
		return d.normalize(obj, key, v, raw)
	}

	for _, key := range d.Fields.ContainerKeys {
		if child, ok := obj[key].(map[string]interface{}); ok {
			if c := d.scan(child, raw, depth+1); c != nil {
				return c
			}
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if arr, ok := obj[key].([]interface{}); ok {
			if c := d.scanArray(arr, raw, depth+1); c != nil {
				return c
			}
		}
	}

	return nil
}

func (d *Detector) scanArray(arr []interface{}, raw interface{}, depth int) *Challenge {
	for i := 0; i < len(arr) && i < d.MaxArrayItems; i++ {
		if child, ok := arr[i].(map[string]interface{}); ok {
			if c := d.scan(child, raw, depth); c != nil {
				return c
			}
		}
	}
	return nil
}

func (d *Detector) normalize(parent map[string]interface{}, key string, value, raw interface{}) *Challenge {
	f := d.Fields
	c := &Challenge{MatchedKey: key, Raw: raw}

	sub, _ := value.(map[string]interface{})

	// Plain "id" on the enclosing object usually names the resource, not the challenge.
	c.ID, c.IDField = lookup(sub, f.IDKeys)
	if c.ID == "" {
		c.ID, c.IDField = lookup(parent, withoutKey(f.IDKeys, "id"))
	}

	c.TypeTag, _ = lookup(sub, f.TypeKeys)
	if c.TypeTag == "" && sub == nil {
		c.TypeTag, _ = lookup(parent, f.TypeKeys)
	}
	c.Type = Classify(c.TypeTag)

	c.Expression, _ = lookup(sub, f.ExpressionKeys)
	c.VerifyURL, _ = lookup(sub, f.URLKeys)
	c.Code, _ = lookup(sub, f.CodeKeys)

	switch {
	case sub != nil:
		c.Content, _ = lookup(sub, f.ContentKeys)
		if c.Content == "" && c.Code == "" {
			c.Content = stringify(sub)
		}
	case contains(f.CodeKeys, key):
		c.Code = scalarText(value)
		c.Content, _ = lookup(parent, withoutKey(f.ContentKeys, key))
	case contains(f.URLKeys, key):
		c.VerifyURL = scalarText(value)
		c.Content, _ = lookup(parent, withoutKey(f.ContentKeys, key))
	default:
		c.Content = scalarText(value)
		if c.Content == "" {
			c.Content = stringify(value)
		}
	}

	if c.Expression == "" {
		c.Expression, _ = lookup(parent, withoutKey(f.ExpressionKeys, key))
	}
	if c.VerifyURL == "" {
		c.VerifyURL, _ = lookup(parent, withoutKey(f.URLKeys, key))
	}
	if c.Code == "" {
		c.Code, _ = lookup(parent, withoutKey(f.CodeKeys, key))
	}

	return c
}

// lookup returns the first non-empty textual value among keys and the key it came from.
func lookup(obj map[string]interface{}, keys []string) (string, string) {
	if obj == nil {
		return "", ""
	}
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || isEmpty(v) {
			continue
		}
		if s := scalarText(v); s != "" {
			return s, k
		}
	}
	return "", ""
}

func withoutKey(keys []string, drop string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != drop {
			out = append(out, k)
		}
	}
	return out
}

// isEmpty reports values that never count as a challenge hit.
func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}

// scalarText renders strings and numbers. Objects and arrays yield "".
func scalarText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int, int64:
		return fmt.Sprint(t)
	}
	return ""
}

func stringify(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
