package domain

// PasswordCredential is embedded in the users row. Params are kept next to the
// hash so verification uses the cost the hash was created with.
type PasswordCredential struct {
	Algo        string `gorm:"column:password_algo;type:text;not null" db:"password_algo"`
	Hash        []byte `gorm:"column:password_hash;not null" db:"password_hash"`
	Salt        []byte `gorm:"column:password_salt;not null" db:"password_salt"`
	ParamsJSON  []byte `gorm:"column:password_params;not null" db:"password_params"`
	PasswordVer int    `gorm:"column:password_ver;not null;default:1" db:"password_ver"`
}

func (p *PasswordCredential) GetAlgo() string       { return p.Algo }
func (p *PasswordCredential) GetHash() []byte       { return p.Hash }
func (p *PasswordCredential) GetSalt() []byte       { return p.Salt }
func (p *PasswordCredential) GetParamsJSON() []byte { return p.ParamsJSON }
func (p *PasswordCredential) GetPasswordVer() int   { return p.PasswordVer }
