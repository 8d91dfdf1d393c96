package configtree

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// timeNow es el reloj usado para LastSaved; los tests lo reemplazan.
var timeNow = time.Now

// ParsePath separa "platforms.meta.dev.oauth.redirect_uri" en sus claves.
func ParsePath(s string) []string {
	parts := strings.Split(strings.TrimSpace(s), ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Update devuelve un árbol nuevo con value en path (relativo a user+brand seleccionados).
// Los nodos intermedios ausentes se crean vacíos; el receptor no se modifica.
func (c *AppConfig) Update(path []string, value string) (*AppConfig, error) {
	sel := c.CurrentSelection
	if sel.User == "" || sel.Brand == "" {
		return nil, ErrNoSelection
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}

	brand := c.brand(sel.User, sel.Brand)
	if brand.Details.Name == "" && brand.Platforms == nil {
		brand.Details.Name = sel.Brand
	}

	var err error
	switch path[0] {
	case "details":
		brand.Details, err = updateDetails(brand.Details, path[1:], value)
	case "platforms":
		brand.Platforms, err = updatePlatforms(brand.Platforms, path[1:], value)
	default:
		err = fmt.Errorf("%w: unknown root %q", ErrInvalidPath, path[0])
	}
	if err != nil {
		return nil, err
	}
	return c.withBrand(sel.User, sel.Brand, brand), nil
}

// Get lee el valor en path. El segundo retorno es false si algún nodo no existe.
func (c *AppConfig) Get(path []string) (string, bool) {
	brand, ok := c.SelectedBrand()
	if !ok || len(path) == 0 {
		return "", false
	}
	switch path[0] {
	case "details":
		return getDetails(brand.Details, path[1:])
	case "platforms":
		if len(path) != 5 {
			return "", false
		}
		p, err := ParsePlatform(path[1])
		if err != nil {
			return "", false
		}
		st, err := ParseStage(path[2])
		if err != nil {
			return "", false
		}
		pc, ok := brand.Platforms[p]
		if !ok {
			return "", false
		}
		env := pc.Env(st)
		switch path[3] {
		case "credentials":
			v, ok := env.Credentials[path[4]]
			return v, ok
		case "tokens":
			v, ok := env.Tokens[path[4]]
			return v, ok
		case "oauth":
			switch path[4] {
			case "redirect_uri":
				return env.OAuth.RedirectURI, true
			case "scopes":
				return env.OAuth.Scopes, true
			}
		}
	}
	return "", false
}

// SelectedBrand devuelve la marca seleccionada si existe.
func (c *AppConfig) SelectedBrand() (BrandConfig, bool) {
	u, ok := c.Users[c.CurrentSelection.User]
	if !ok {
		return BrandConfig{}, false
	}
	b, ok := u.Brands[c.CurrentSelection.Brand]
	return b, ok
}

// ActiveEnvironment devuelve la config de plataforma/stage de la marca seleccionada.
// La ausencia no es un error: retorna el valor cero y false.
func (c *AppConfig) ActiveEnvironment(p Platform, stage Stage) (PlatformEnvironmentConfig, bool) {
	b, ok := c.SelectedBrand()
	if !ok {
		return PlatformEnvironmentConfig{}, false
	}
	pc, ok := b.Platforms[p]
	if !ok {
		return PlatformEnvironmentConfig{}, false
	}
	return pc.Env(stage), true
}

// Select reemplaza el puntero de contexto. No valida existencia.
func (c *AppConfig) Select(sel Selection) *AppConfig {
	next := *c
	next.CurrentSelection = sel
	next.LastSaved = timeNow().UTC()
	return &next
}

// AddUser crea un usuario vacío y lo selecciona.
func (c *AppConfig) AddUser(name string) (*AppConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if _, ok := c.Users[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrUserExists, name)
	}
	next := *c
	next.Users = cloneMap(c.Users)
	next.Users[name] = UserConfig{Brands: map[string]BrandConfig{}}
	next.CurrentSelection = Selection{User: name}
	next.LastSaved = timeNow().UTC()
	return &next, nil
}

// AddBrand crea una marca bajo el usuario actual y la selecciona.
// Si ya existe devuelve ErrBrandExists y el árbol no cambia.
func (c *AppConfig) AddBrand(name string) (*AppConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	user := c.CurrentSelection.User
	if user == "" {
		return nil, ErrNoSelection
	}
	if _, ok := c.Users[user].Brands[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrBrandExists, name)
	}
	next := c.withBrand(user, name, BrandConfig{
		Details:   BrandDetails{Name: name},
		Platforms: map[Platform]PlatformConfig{},
	})
	next.CurrentSelection = Selection{User: user, Brand: name}
	return next, nil
}

// brand devuelve una copia del nodo marca (o uno vacío).
func (c *AppConfig) brand(user, brand string) BrandConfig {
	return c.Users[user].Brands[brand]
}

// withBrand reconstruye raíz → usuario → marca. El resto del árbol se comparte.
func (c *AppConfig) withBrand(user, name string, b BrandConfig) *AppConfig {
	next := *c
	next.Users = cloneMap(c.Users)
	u := next.Users[user]
	u.Brands = cloneMap(u.Brands)
	u.Brands[name] = b
	next.Users[user] = u
	next.LastSaved = timeNow().UTC()
	return &next
}

func updateDetails(d BrandDetails, path []string, value string) (BrandDetails, error) {
	switch {
	case len(path) == 1 && path[0] == "name":
		d.Name = value
	case len(path) == 1 && path[0] == "logoUrl":
		d.LogoURL = value
	case len(path) == 1 && path[0] == "description":
		d.Description = value
	case len(path) == 2 && path[0] == "postingDefaults" && path[1] == "mandatoryHashtags":
		d.PostingDefaults.MandatoryHashtags = value
	case len(path) == 2 && path[0] == "postingDefaults" && path[1] == "defaultAccounts":
		d.PostingDefaults.DefaultAccounts = accountSet(value)
	default:
		return d, fmt.Errorf("%w: details.%s", ErrInvalidPath, strings.Join(path, "."))
	}
	return d, nil
}

func getDetails(d BrandDetails, path []string) (string, bool) {
	switch strings.Join(path, ".") {
	case "name":
		return d.Name, true
	case "logoUrl":
		return d.LogoURL, true
	case "description":
		return d.Description, true
	case "postingDefaults.mandatoryHashtags":
		return d.PostingDefaults.MandatoryHashtags, true
	case "postingDefaults.defaultAccounts":
		return strings.Join(d.PostingDefaults.DefaultAccounts, ","), true
	}
	return "", false
}

// updatePlatforms espera <platform>.<stage>.<credentials|tokens|oauth>.<field>.
func updatePlatforms(ps map[Platform]PlatformConfig, path []string, value string) (map[Platform]PlatformConfig, error) {
	if len(path) != 4 {
		return nil, fmt.Errorf("%w: platforms.%s", ErrInvalidPath, strings.Join(path, "."))
	}
	p, err := ParsePlatform(path[0])
	if err != nil {
		return nil, err
	}
	stage, err := ParseStage(path[1])
	if err != nil {
		return nil, err
	}
	field := path[3]

	pc, ok := ps[p]
	if !ok {
		pc = NewPlatformConfig(p)
	}
	env := pc.Env(stage)
	switch path[2] {
	case "credentials":
		env.Credentials = cloneWith(env.Credentials, field, value)
	case "tokens":
		env.Tokens = cloneWith(env.Tokens, field, value)
	case "oauth":
		switch field {
		case "redirect_uri":
			env.OAuth.RedirectURI = value
		case "scopes":
			env.OAuth.Scopes = value
		default:
			return nil, fmt.Errorf("%w: oauth.%s", ErrInvalidPath, field)
		}
	default:
		return nil, fmt.Errorf("%w: section %q", ErrInvalidPath, path[2])
	}

	next := cloneMap(ps)
	next[p] = pc.withEnv(stage, env)
	return next, nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return maps.Clone(m)
}

func cloneWith(m map[string]string, k, v string) map[string]string {
	out := cloneMap(m)
	out[k] = v
	return out
}

func accountSet(csv string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, a := range strings.Split(csv, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
