package naming

// defaultAliases maps spellings Canonical alone cannot unify onto the
// family's preferred identity. Both sides go through Canonical when the
// table is built, so pairs here can use natural spelling.
var defaultAliases = [][2]string{
	{"Franceinfo", "France Info"},
	{"France Info TV", "France Info"},
	{"BFM", "BFM TV"},
	{"C NEWS", "CNEWS"},
	{"NOVO", "NOVO 19"},
	{"TF1 Series", "TF1 Series Films"},
	{"TFX Series Films", "TFX"},
	{"L'Equipe 21", "L'Equipe"},
	{"L'Equipe TV", "L'Equipe"},
	{"La Chaine L'Equipe", "L'Equipe"},
}

// Table resolves channel aliases on top of Canonical. The zero value applies
// no aliases; NewTable loads the defaults plus caller overrides.
type Table struct {
	aliases map[string]string
}

// NewTable builds an alias table from the defaults merged with overrides.
// Overrides win on conflict.
func NewTable(overrides map[string]string) Table {
	m := make(map[string]string, len(defaultAliases)+len(overrides))
	for _, p := range defaultAliases {
		m[Canonical(p[0])] = Canonical(p[1])
	}
	for from, to := range overrides {
		m[Canonical(from)] = Canonical(to)
	}
	return Table{aliases: m}
}

// Canonical normalizes name and follows one alias hop if the table has one.
func (t Table) Canonical(name string) string {
	key := Canonical(name)
	if to, ok := t.aliases[key]; ok {
		return to
	}
	return key
}
