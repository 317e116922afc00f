package auth

import "nathanbeddoewebdev/oshost/internal/util"

// CredentialKey describes a single credential field for a provider.
type CredentialKey struct {
	// Name is the suffix of the secret key, e.g. "password".
	Name string

	// Prompt is the label shown when prompting the user.
	Prompt string

	// Secret controls whether the input is masked.
	Secret bool
}

// CredentialSpec describes the credentials a provider keeps in the store.
type CredentialSpec struct {
	Provider    string
	DisplayName string
	Keys        []CredentialKey
}

// KeychainKey returns the store key for k.
func (s CredentialSpec) KeychainKey(k CredentialKey) string {
	return SecretKey(s.Provider, k.Name)
}

// Only the password is stored; the rest of the identity comes from the
// OS_* environment.
var knownSpecs = []CredentialSpec{
	{
		Provider:    "openstack",
		DisplayName: "OpenStack",
		Keys: []CredentialKey{
			{Name: "password", Prompt: "Password", Secret: true},
		},
	},
}

// LookupCredentials returns the CredentialSpec for providerName, or nil.
func LookupCredentials(providerName string) *CredentialSpec {
	normalized := util.NormalizeKey(providerName)
	for i := range knownSpecs {
		if knownSpecs[i].Provider == normalized {
			return &knownSpecs[i]
		}
	}
	return nil
}

// AllCredentials returns a copy of the registered credential specs.
func AllCredentials() []CredentialSpec {
	out := make([]CredentialSpec, len(knownSpecs))
	copy(out, knownSpecs)
	return out
}
