package query

import (
	"github.com/mailru/easyjson/jlexer"
)

// Record is one row of the dataset: a query and the pseudo-document generated for it.
type Record struct {
	QueryID   string `json:"query_id"`
	Query     string `json:"query"`
	PseudoDoc string `json:"pseudo_doc"`
}

// UnmarshalEasyJSON decodes a record, ignoring any columns other than query_id, query, and pseudo_doc.
func (r *Record) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "query_id":
			// Some exports write ids as numbers.
			r.QueryID = in.JsonNumber().String()
		case "query":
			r.Query = in.String()
		case "pseudo_doc":
			r.PseudoDoc = in.String()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}
