package resolve

import (
	"strings"

	"dario.cat/mergo"
)

const arnPrefix = "arn:"

// Default names the region and node toggles expand into when set to `true`.
const (
	defaultRegionEnvName = "AWS_REGION"
	defaultNodeEnvName   = "NODE_ENV"
	defaultS3EnvName     = "S3_BUCKET"
)

// resolveEnv expands the shorthand toggles and merges the variables maps into
// one ordered, name-unique environment list. Merge order is region, node, s3,
// then custom variables; a later writer replaces an earlier entry in place so
// the final order stays deterministic.
func resolveEnv(e *Entity, defaults *GlobalDefaults, project ProjectSpec, lookups Lookups) []EnvVar {
	var out []EnvVar
	put := func(name, value string) {
		for i := range out {
			if out[i].Name == name {
				out[i].Value = value
				return
			}
		}
		out = append(out, EnvVar{Name: name, Value: value})
	}

	// Lambda runtimes get AWS_REGION from the provider; only services emit it.
	if e.Kind == KindService && e.Env.Region.Enabled() {
		put(e.Env.Region.StringOr(defaultRegionEnvName), project.Region)
	}

	if e.Env.Node.Enabled() {
		put(defaultNodeEnvName, e.Env.Node.StringOr(project.Environment))
	}

	if e.Env.S3.Enabled() && lookups.S3Enabled {
		put(e.Env.S3.StringOr(defaultS3EnvName), lookups.BucketName)
	}

	merged := map[string]string{}
	for k, v := range defaults.Env.Variables {
		merged[k] = v
	}
	// Entity keys win on conflict.
	if err := mergo.Merge(&merged, e.Env.Variables, mergo.WithOverride); err != nil {
		// Both operands are plain string maps; mergo cannot fail on them.
		panic(err)
	}
	for _, k := range sortedKeys(merged) {
		put(k, merged[k])
	}

	return out
}

// resolveSecrets merges the global and entity secrets maps (entity wins),
// qualifies every reference against the lookup table, and appends the
// database-derived entry. Validation has already established that every
// referenced identifier exists, so lookups here cannot miss.
func resolveSecrets(e *Entity, defaults *GlobalDefaults, lookups Lookups, opts Options) []SecretRef {
	merged := map[string]string{}
	for k, v := range defaults.Secrets {
		merged[k] = v
	}
	if err := mergo.Merge(&merged, e.Secrets, mergo.WithOverride); err != nil {
		panic(err)
	}

	out := make([]SecretRef, 0, len(merged)+1)
	for _, name := range sortedKeys(merged) {
		out = append(out, SecretRef{Name: name, ValueFrom: qualifySecretRef(merged[name], lookups)})
	}

	if e.Env.Database.Enabled() {
		name := e.Env.Database.EnvName()
		if _, userDeclared := merged[name]; userDeclared && opts.AllowDatabaseKeyOverride {
			// Operator explicitly kept their own mapping under the database
			// env name; the derived entry is skipped.
			return out
		}
		arn := lookups.DatabaseSecretArn
		if ref := e.Env.Database.SecretRef(); ref != "" {
			arn = resolveSecretID(ref, lookups)
		}
		out = append(out, SecretRef{
			Name:      name,
			ValueFrom: withJSONKey(arn, lookups.databaseJSONKey()),
		})
	}

	return out
}

// secretDeclared reports whether a user mapping for name exists in the
// merged defaults+entity view resolveSecrets builds.
func secretDeclared(name string, defaults *GlobalDefaults, e *Entity) bool {
	if _, ok := e.Secrets[name]; ok {
		return true
	}
	_, ok := defaults.Secrets[name]
	return ok
}

// splitSecretRef separates "identifier:jsonKey" into its parts. A reference
// may itself contain colons (full ARNs do), so only a trailing segment after
// the identifier is treated as the JSON key.
func splitSecretRef(ref string) (id, jsonKey string) {
	if strings.HasPrefix(ref, arnPrefix) {
		// ARN references: the JSON key is anything after the sixth colon
		// block, i.e. arn:aws:secretsmanager:region:acct:secret:name[:key].
		parts := strings.Split(ref, ":")
		if len(parts) > 7 {
			return strings.Join(parts[:7], ":"), parts[7]
		}
		return ref, ""
	}
	if i := strings.Index(ref, ":"); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

// qualifySecretRef turns a shorthand reference into the fully-qualified
// value-from string the provisioning layer consumes.
func qualifySecretRef(ref string, lookups Lookups) string {
	id, jsonKey := splitSecretRef(ref)
	return withJSONKey(resolveSecretID(id, lookups), jsonKey)
}

func resolveSecretID(id string, lookups Lookups) string {
	if strings.HasPrefix(id, arnPrefix) {
		return id
	}
	return lookups.SecretArns[id]
}

// withJSONKey appends the ECS-style JSON key suffix ("arn:key::"); the two
// trailing colons leave version-stage and version-id unpinned.
func withJSONKey(arn, jsonKey string) string {
	if jsonKey == "" {
		return arn
	}
	return arn + ":" + jsonKey + "::"
}
