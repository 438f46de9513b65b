/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: json.go
Description: JSON rendering of a report.
*/

package reporting

import (
	"encoding/json"
	"io"
)

// WriteJSON writes r as indented JSON
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
