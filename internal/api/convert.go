package api

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kvmeta/internal/meta"
)

// Operation converts the create request into its catalog operation. The
// conversion is pure: it validates the request shape and config but touches
// no state. A nil config falls back to the defaults.
func (r CreateCollection) Operation() (meta.Operation, error) {
	if err := meta.ValidateCollectionName(r.CollectionName); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	cfg := meta.DefaultCollectionConfig()
	if r.Config != nil {
		cfg = r.Config.Normalized()
	}
	if err := cfg.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return meta.CreateCollectionOperation{
		CollectionName: r.CollectionName,
		Config:         cfg,
	}, nil
}

// Operation converts the update request into its catalog operation. Fields
// explicitly set to zero are rejected here; consistency against the stored
// config (quorums vs replication factor) is checked at apply time, when the
// merged config is known.
func (r UpdateCollection) Operation() (meta.Operation, error) {
	if err := meta.ValidateCollectionName(r.CollectionName); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var diff meta.ConfigDiff
	if r.Config != nil {
		diff = *r.Config
	}
	for name, field := range map[string]*uint32{
		"replication_factor": diff.ReplicationFactor,
		"read_quorum":        diff.ReadQuorum,
		"write_quorum":       diff.WriteQuorum,
	} {
		if field != nil && *field == 0 {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be at least 1", name)
		}
	}
	return meta.UpdateCollectionOperation{
		CollectionName: r.CollectionName,
		Diff:           diff,
	}, nil
}

// Operation converts the delete request into its catalog operation.
func (r DeleteCollection) Operation() (meta.Operation, error) {
	if err := meta.ValidateCollectionName(r.CollectionName); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return meta.DeleteCollectionOperation{CollectionName: r.CollectionName}, nil
}

// Operation converts the alias batch into its catalog operation. Every
// action must have exactly one member set and all names must be well formed;
// an empty batch is rejected.
func (r ChangeAliases) Operation() (meta.Operation, error) {
	if len(r.Actions) == 0 {
		return nil, status.Error(codes.InvalidArgument, "alias change must carry at least one action")
	}
	actions := make([]meta.AliasAction, 0, len(r.Actions))
	for i, a := range r.Actions {
		action, err := a.toMeta()
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "action %d: %s", i, err)
		}
		actions = append(actions, action)
	}
	return meta.ChangeAliasesOperation{Actions: actions}, nil
}

func (a AliasAction) toMeta() (meta.AliasAction, error) {
	set := 0
	if a.CreateAlias != nil {
		set++
	}
	if a.RenameAlias != nil {
		set++
	}
	if a.DeleteAlias != nil {
		set++
	}
	if set != 1 {
		return nil, errors.New("exactly one of create_alias, rename_alias, delete_alias must be set")
	}

	switch {
	case a.CreateAlias != nil:
		if err := meta.ValidateCollectionName(a.CreateAlias.CollectionName); err != nil {
			return nil, err
		}
		if err := meta.ValidateAliasName(a.CreateAlias.AliasName); err != nil {
			return nil, err
		}
		return meta.CreateAliasAction{
			Alias:      a.CreateAlias.AliasName,
			Collection: a.CreateAlias.CollectionName,
		}, nil
	case a.RenameAlias != nil:
		if err := meta.ValidateAliasName(a.RenameAlias.OldAliasName); err != nil {
			return nil, err
		}
		if err := meta.ValidateAliasName(a.RenameAlias.NewAliasName); err != nil {
			return nil, err
		}
		return meta.RenameAliasAction{
			OldAlias: a.RenameAlias.OldAliasName,
			NewAlias: a.RenameAlias.NewAliasName,
		}, nil
	default:
		if err := meta.ValidateAliasName(a.DeleteAlias.AliasName); err != nil {
			return nil, err
		}
		return meta.DeleteAliasAction{Alias: a.DeleteAlias.AliasName}, nil
	}
}
