package console

// Credential pairs a guest username with its captured secret. The secret is
// held only between capture and consumption by the user-creation command;
// callers must Wipe it on every exit path.
type Credential struct {
	Username string
	secret   []byte
}

// NewCredential takes ownership of secret.
func NewCredential(username string, secret []byte) *Credential {
	return &Credential{Username: username, secret: secret}
}

// Secret exposes the raw secret for the one command that consumes it.
func (c *Credential) Secret() []byte {
	return c.secret
}

// Wipe overwrites the secret in place. Safe to call more than once.
func (c *Credential) Wipe() {
	for i := range c.secret {
		c.secret[i] = 0
	}
	c.secret = c.secret[:0]
}

// String keeps the secret out of accidental formatting and log records.
func (c *Credential) String() string {
	return c.Username + ":<redacted>"
}
