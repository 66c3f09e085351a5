package blockconf_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sikol/blockconf"
)

type testBlock struct {
	Name  string
	Value int `config:"value"`
}

type testConfig struct {
	Workers int                  `config:"workers"`
	Name    string               `config:"name"`
	Debug   bool                 `config:"debug"`
	Ports   []int                `config:"port"`
	Tags    map[string]struct{}  `config:"tag"`
	Items   map[string]testBlock `config:"item,key=Name"`
}

func mustTestParser[T any](t *testing.T, options ...blockconf.Option) *blockconf.Parser[T] {
	t.Helper()
	parser, err := blockconf.Build[T](options...)
	require.NoError(t, err)
	return parser
}

func requireDiagnostics(t *testing.T, err error) []blockconf.Diagnostic {
	t.Helper()
	require.Error(t, err)
	var perr *blockconf.Error
	require.True(t, errors.As(err, &perr), "expected *blockconf.Error but got %T: %s", err, err)
	require.NotEmpty(t, perr.Diagnostics)
	return perr.Diagnostics
}

func TestParseFullConfig(t *testing.T) {
	parser := mustTestParser[testConfig](t)
	actual, err := parser.ParseString("test.conf", `
# A comment on its own line.
workers 4;          # and a trailing comment
name 'front end';
debug yes;
port 80, 443;
port { 8080; 8443; };
tag web, edge;
item one { value 1; };
item "forty-two" {
	value 42;
};
`)
	require.NoError(t, err)
	expected := &testConfig{
		Workers: 4,
		Name:    "front end",
		Debug:   true,
		Ports:   []int{80, 443, 8080, 8443},
		Tags:    map[string]struct{}{"web": {}, "edge": {}},
		Items: map[string]testBlock{
			"one":       {Name: "one", Value: 1},
			"forty-two": {Name: "forty-two", Value: 42},
		},
	}
	require.Empty(t, cmp.Diff(expected, actual), repr.String(actual, repr.Indent("  ")))
}

func TestParseEmptyInput(t *testing.T) {
	parser := mustTestParser[testConfig](t)
	actual, err := parser.ParseString("", "  \n# nothing here\n")
	require.NoError(t, err)
	require.Equal(t, &testConfig{}, actual)
}

func TestScalarOptionsOverwrite(t *testing.T) {
	parser := mustTestParser[testConfig](t)
	actual, err := parser.ParseString("", "workers 1; workers 2;")
	require.NoError(t, err)
	require.Equal(t, 2, actual.Workers)
}

func TestSequenceAppendsInEncounterOrder(t *testing.T) {
	type grammar struct {
		K []int `config:"k"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", "k 1, 2; k 3;")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, actual.K)

	actual, err = parser.ParseString("", "k 3, 3; k { 1; 3; };")
	require.NoError(t, err)
	require.Equal(t, []int{3, 3, 1, 3}, actual.K)

	actual, err = parser.ParseString("", "k {};")
	require.NoError(t, err)
	require.Empty(t, actual.K)
}

func TestParseIntoKeepsDefaults(t *testing.T) {
	parser := mustTestParser[testConfig](t)
	config := testConfig{Workers: 8, Name: "default"}
	err := parser.ParseInto("", "name override;", &config)
	require.NoError(t, err)
	require.Equal(t, 8, config.Workers)
	require.Equal(t, "override", config.Name)
}

func TestParseBytesAndReader(t *testing.T) {
	parser := mustTestParser[testConfig](t)
	actual, err := parser.ParseBytes("", []byte("workers 3;"))
	require.NoError(t, err)
	require.Equal(t, 3, actual.Workers)

	actual, err = parser.Parse("", strings.NewReader("workers 5;"))
	require.NoError(t, err)
	require.Equal(t, 5, actual.Workers)
}

func TestDerivedKeywordsAndEmbedding(t *testing.T) {
	type Common struct {
		LogLevel string `config:""`
	}
	type grammar struct {
		Common
		MaxConns int `config:""`
		HTTPPort int `config:""`
		Ignored  int
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", "log-level debug; max-conns 10; http-port 8080;")
	require.NoError(t, err)
	require.Equal(t, &grammar{Common: Common{LogLevel: "debug"}, MaxConns: 10, HTTPPort: 8080}, actual)

	_, err = parser.ParseString("", "ignored 1;")
	diags := requireDiagnostics(t, err)
	require.Equal(t, `unknown keyword "ignored"`, diags[0].Message)
}

func TestNestedBlocks(t *testing.T) {
	type Listener struct {
		Address string `config:"address"`
		TLS     bool   `config:"tls"`
	}
	type Server struct {
		Name      string
		Listeners []*Listener `config:"listen"`
		Limits    *struct {
			Rate int `config:"rate"`
		} `config:"limits"`
	}
	type grammar struct {
		Servers []Server `config:"server,key=Name"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", `
server web {
	listen { address 'localhost:80'; };
	listen { address 'localhost:443'; tls true; };
	limits { rate 100; };
};
server api {};
`)
	require.NoError(t, err)
	require.Len(t, actual.Servers, 2)
	web := actual.Servers[0]
	require.Equal(t, "web", web.Name)
	require.Equal(t, []*Listener{{Address: "localhost:80"}, {Address: "localhost:443", TLS: true}}, web.Listeners)
	require.NotNil(t, web.Limits)
	require.Equal(t, 100, web.Limits.Rate)
	require.Equal(t, Server{Name: "api"}, actual.Servers[1])
}

type treeNode struct {
	Name     string
	Weight   int         `config:"weight"`
	Children []*treeNode `config:"child,key=Name"`
}

func TestRecursiveBlocks(t *testing.T) {
	parser := mustTestParser[treeNode](t)
	actual, err := parser.ParseString("", `
weight 1;
child a {
	child b { weight 3; };
};
`)
	require.NoError(t, err)
	expected := &treeNode{
		Weight: 1,
		Children: []*treeNode{{
			Name:     "a",
			Children: []*treeNode{{Name: "b", Weight: 3}},
		}},
	}
	require.Equal(t, expected, actual)
}

func TestFailedBlockIsNotMerged(t *testing.T) {
	type Server struct {
		Port int `config:"port"`
	}
	type grammar struct {
		Server *Server `config:"server"`
	}
	parser := mustTestParser[grammar](t)
	actual, err := parser.ParseString("", "server { port 1; port x; };")
	requireDiagnostics(t, err)
	require.Nil(t, actual.Server)
}

func TestParserIsSafeForConcurrentUse(t *testing.T) {
	parser := mustTestParser[testConfig](t)
	wg := sync.WaitGroup{}
	errs := make([]error, 16)
	results := make([]*testConfig, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = parser.ParseString("", "workers 2; port 1, 2; item x { value 3; };")
		}(i)
	}
	wg.Wait()
	for i := range errs {
		require.NoError(t, errs[i])
		require.Equal(t, []int{1, 2}, results[i].Ports)
		require.Equal(t, 3, results[i].Items["x"].Value)
	}
}

func TestTrace(t *testing.T) {
	w := &strings.Builder{}
	parser := mustTestParser[testConfig](t, blockconf.Trace(w))
	_, err := parser.ParseString("", "workers 2;")
	require.NoError(t, err)
	require.Contains(t, w.String(), `"workers 2;"`)
	require.Contains(t, w.String(), "an integer")
}

func TestBuildErrors(t *testing.T) {
	type duplicateKeyword struct {
		A int `config:"a"`
		B int `config:"a"`
	}
	_, err := blockconf.Build[duplicateKeyword]()
	require.EqualError(t, err, `duplicateKeyword: B: duplicate keyword "a"`)

	type block struct {
		Name string
		V    int `config:"v"`
	}
	type missingKey struct {
		Blocks map[string]block `config:"b"`
	}
	_, err = blockconf.Build[missingKey]()
	require.EqualError(t, err, "missingKey: Blocks: map blocks require key=")

	type unknownKeyField struct {
		Blocks map[string]block `config:"b,key=Missing"`
	}
	_, err = blockconf.Build[unknownKeyField]()
	require.EqualError(t, err, "unknownKeyField: Blocks: key field block.Missing does not exist")

	type keyed struct {
		ID   int
		Name string
		X    int `config:"x"`
	}
	type intKeyIntoString struct {
		Subs map[string]keyed `config:"s,key=ID"`
	}
	_, err = blockconf.Build[intKeyIntoString]()
	require.EqualError(t, err, "intKeyIntoString: Subs: key field keyed.ID of type int does not convert to string")

	type stringKeyIntoInt struct {
		Subs map[int]keyed `config:"s,key=Name"`
	}
	_, err = blockconf.Build[stringKeyIntoInt]()
	require.EqualError(t, err, "stringKeyIntoInt: Subs: key field keyed.Name of type string does not convert to int")

	type keyOnOption struct {
		V int `config:"v,key=X"`
	}
	_, err = blockconf.Build[keyOnOption]()
	require.EqualError(t, err, "keyOnOption: V: key= is only valid on blocks")

	type unsupported struct {
		C chan int `config:"c"`
	}
	_, err = blockconf.Build[unsupported]()
	require.EqualError(t, err, "unsupported: C: unsupported field type chan int")

	type badKeyword struct {
		V int `config:"1v"`
	}
	_, err = blockconf.Build[badKeyword]()
	require.EqualError(t, err, `badKeyword: V: keyword "1v" is not an identifier`)

	type unexported struct {
		v int `config:"v"` // nolint: unused
	}
	_, err = blockconf.Build[unexported]()
	require.EqualError(t, err, "unexported: v: tagged field is unexported")

	_, err = blockconf.Build[int]()
	require.EqualError(t, err, "expected a struct but got int")

	require.Panics(t, func() { blockconf.MustBuild[unsupported]() })
}
