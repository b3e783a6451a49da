package records

import (
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/server/retention"
)

// Schema names the table behind a collection and its optional child table.
type Schema struct {
	Collection string
	Table      string
	// ChildTable and ChildFK are empty when the collection owns no children.
	ChildTable string
	ChildFK    string
	// RemoteRef is the column holding the blob key, empty when none.
	RemoteRef string
}

func (s Schema) HasChildren() bool { return s.ChildTable != "" }

var schemas = map[string]Schema{
	retention.Conversations: {
		Collection: retention.Conversations,
		Table:      "conversations",
		ChildTable: "messages",
		ChildFK:    "conversation_id",
	},
	retention.VaultFiles: {
		Collection: retention.VaultFiles,
		Table:      "vault_files",
		RemoteRef:  "remote_ref",
	},
	retention.Todos: {
		Collection: retention.Todos,
		Table:      "todos",
	},
	retention.SessionLogs: {
		Collection: retention.SessionLogs,
		Table:      "session_logs",
	},
}

// SchemaFor returns the table layout of a collection.
func SchemaFor(collection string) (Schema, error) {
	s, ok := schemas[collection]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", common.ErrorUnknownCollection, collection)
	}
	return s, nil
}
