package objtree

import "testing"

func TestParseURI(t *testing.T) {
	u := must(ParseURI("bolt://localhost:7000/var/data/a.db?bucket=users&perm=rw#frag"))
	deepEqual(t, u.Scheme, "bolt")
	deepEqual(t, u.Host, "localhost")
	deepEqual(t, u.Port, 7000)
	deepEqual(t, u.Path, "/var/data/a.db")
	deepEqual(t, u.Query["bucket"], "users")
	deepEqual(t, u.Query["perm"], "rw")
	deepEqual(t, u.Fragment, "frag")

	u = must(ParseURI("file:///tmp/tree"))
	deepEqual(t, u.Scheme, "file")
	deepEqual(t, u.Path, "/tmp/tree")

	if _, err := ParseURI("/no/scheme"); err == nil {
		t.Errorf("** scheme-less URI should not parse")
	}
}

func TestURIOptions(t *testing.T) {
	u := must(ParseURI("x://h/p?perm=r"))
	deepEqual(t, u.options().Mode, ModeRead)

	u = must(ParseURI("x://h/p?perm=rwc"))
	deepEqual(t, u.options().Mode, ModeRead|ModeWrite|ModeClobber)

	u = must(ParseURI("x://h/p"))
	deepEqual(t, u.options().Mode, Mode(0))
}

type uriTestSource struct {
	SourceBase
	seed Object
}

func (s *uriTestSource) Meta() SourceMeta              { return SourceMeta{} }
func (s *uriTestSource) NewInstance(Origin) DataSource { return s }
func (s *uriTestSource) Read() (Object, error)         { return s.seed.Copy(), nil }

func TestOpen(t *testing.T) {
	RegisterScheme("uritest", func(uri URI, opts Options) (DataSource, error) {
		return &uriTestSource{seed: NewOMap("host", uri.Host)}, nil
	})

	o := must(Open("uritest://box17/ignored"))
	deepEqual(t, o.IsBound(), true)
	deepEqual(t, o.Get("host").Str(), "box17")

	if _, err := Open("nosuch://x"); err == nil {
		t.Errorf("** unknown scheme should not open")
	}
}

func TestOpenPermRestriction(t *testing.T) {
	RegisterScheme("uritest-ro", func(uri URI, opts Options) (DataSource, error) {
		return &uriTestSource{seed: NewOMap("a", 1)}, nil
	})
	o := must(Open("uritest-ro://h?perm=r"))
	deepEqual(t, o.Get("a").Int(), int64(1))
	mustPanic(t, &WriteProtectedError{}, func() { o.Set("a", 2) })
}

func TestModeString(t *testing.T) {
	deepEqual(t, (ModeRead | ModeWrite).String(), "rw")
	deepEqual(t, Mode(0).String(), "-")
	deepEqual(t, (ModeRead | ModeWrite | ModeClobber | ModeInherit).String(), "rwci")
}
