package cache

// ScopedKeyer wraps a Keyer with a prefix. The GitHub client scopes its keys
// by a hash of the access token, so responses fetched with one token (which
// may include private repositories) are never served to another.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// CredentialScope returns a keyer scoped to credential. An empty credential
// returns inner unchanged; otherwise only a short hash of it ends up in keys.
func CredentialScope(inner Keyer, credential string) Keyer {
	if credential == "" {
		if inner == nil {
			return NewDefaultKeyer()
		}
		return inner
	}
	return NewScopedKeyer(inner, "auth:"+Hash([]byte(credential))[:16]+":")
}
