package scheme

// The built-in scheme keeps sessions usable with no scheme file configured.
var builtin = mustCompile(file{
	Name: "stormlight-dark",
	Default: fileEntry{
		Fg: "#abb2bf",
	},
	Captures: map[string]fileEntry{
		"keyword":   {Fg: "#c678dd"},
		"string":    {Fg: "#98c379"},
		"escape":    {Fg: "#56b6c2"},
		"comment":   {Fg: "#5c6370", Italic: true},
		"number":    {Fg: "#d19a66"},
		"constant":  {Fg: "#d19a66"},
		"function":  {Fg: "#61afef"},
		"type":      {Fg: "#e5c07b"},
		"property":  {Fg: "#e06c75"},
		"namespace": {Fg: "#e5c07b"},
		"operator":  {Fg: "#56b6c2"},
		"variable":  {Fg: "#e06c75"},
	},
})

func mustCompile(f file) *Scheme {
	s, err := compile(f)
	if err != nil {
		panic("scheme: builtin does not compile: " + err.Error())
	}
	return s
}

// Default returns the built-in scheme.
func Default() *Scheme { return builtin }
