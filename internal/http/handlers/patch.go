package handlers

import (
	"encoding/json"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// PatchKeys reads the field names present in a JSON patch body. The
// body is cached so the caller can still bind it into a typed struct.
func PatchKeys(ctx *gin.Context) ([]string, bool) {
	var raw map[string]json.RawMessage

	if err := ctx.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err))
		return nil, false
	}

	keys := make([]string, 0, len(raw))

	for k := range raw {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys, true
}

// RejectDisallowed enforces the allow-list wholesale: one unknown key
// rejects the entire patch before anything is applied.
func RejectDisallowed(ctx *gin.Context, keys []string, allowed func(string) bool) bool {
	var bad []string

	for _, k := range keys {
		if !allowed(k) {
			bad = append(bad, k)
		}
	}

	if len(bad) > 0 {
		RespondInvalidOperation(ctx, "Invalid update", gin.H{"disallowedFields": bad})
		return false
	}

	return true
}
