package meta

// Operation is the unit of work submitted to the coordinator. The set of
// implementations is closed: every mutating wire request converts into
// exactly one of the types below.
type Operation interface {
	isOperation()

	// Kind returns a short identifier used in logs.
	Kind() string
}

// CreateCollectionOperation creates a collection with a normalized config.
type CreateCollectionOperation struct {
	CollectionName string
	Config         CollectionConfig
}

// UpdateCollectionOperation applies a config diff to an existing collection.
type UpdateCollectionOperation struct {
	CollectionName string
	Diff           ConfigDiff
}

// DeleteCollectionOperation removes a collection and any aliases bound to it.
type DeleteCollectionOperation struct {
	CollectionName string
}

// ChangeAliasesOperation applies a batch of alias actions atomically.
type ChangeAliasesOperation struct {
	Actions []AliasAction
}

func (CreateCollectionOperation) isOperation() {}
func (UpdateCollectionOperation) isOperation() {}
func (DeleteCollectionOperation) isOperation() {}
func (ChangeAliasesOperation) isOperation()    {}

// Kind implements Operation.
func (CreateCollectionOperation) Kind() string { return "create_collection" }

// Kind implements Operation.
func (UpdateCollectionOperation) Kind() string { return "update_collection" }

// Kind implements Operation.
func (DeleteCollectionOperation) Kind() string { return "delete_collection" }

// Kind implements Operation.
func (ChangeAliasesOperation) Kind() string { return "change_aliases" }

// AliasAction is one step of a ChangeAliasesOperation. Like Operation, the
// set of implementations is closed.
type AliasAction interface {
	isAliasAction()
}

// CreateAliasAction binds Alias to Collection.
type CreateAliasAction struct {
	Alias      string
	Collection string
}

// RenameAliasAction rebinds OldAlias under the name NewAlias.
type RenameAliasAction struct {
	OldAlias string
	NewAlias string
}

// DeleteAliasAction removes Alias.
type DeleteAliasAction struct {
	Alias string
}

func (CreateAliasAction) isAliasAction() {}
func (RenameAliasAction) isAliasAction() {}
func (DeleteAliasAction) isAliasAction() {}

// OperationResult reports the outcome of a submitted operation.
type OperationResult struct {
	// Applied is true when the operation completed within the wait window.
	Applied bool
	// Seq is the coordinator-assigned apply sequence number.
	Seq uint64
}
