package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/jsonshape"
)

// registries returns one registry deriving everything at runtime and one
// serving the generated adapters.
func registries(t *testing.T) (derived, generated *jsonshape.Registry) {
	t.Helper()
	derived = jsonshape.NewRegistry(jsonshape.Options{})
	generated = jsonshape.NewRegistry(jsonshape.Options{})
	for _, r := range []*jsonshape.Registry{derived, generated} {
		require.NoError(t, r.RegisterConstructor(newOwner))
		require.NoError(t, r.RegisterConstructor(newLedger, "name", "entries"))
	}
	jsonshape.MustRegister[account](generated, &accountAdapter{Registry: generated})
	jsonshape.MustRegister[owner](generated, &ownerAdapter{Registry: generated})
	jsonshape.MustRegister[ledger](generated, &ledgerAdapter{Registry: generated})
	return derived, generated
}

func mapper[T any](t *testing.T, r *jsonshape.Registry) *jsonshape.Mapper[T] {
	t.Helper()
	m, err := jsonshape.For[T](r)
	require.NoError(t, err)
	return m
}

func TestGeneratedMatchesDerivedAccount(t *testing.T) {
	rd, rg := registries(t)
	md, mg := mapper[account](t, rd), mapper[account](t, rg)

	inputs := []string{
		`{}`,
		`{"id":"a1","owner":{"name":"Ann","email":"a@x"},"balance":-12,"tags":["x","y"],"limits":{"b":2,"a":1},` +
			`"opened":"2024-05-01T10:00:00Z","key":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","extra":{"k":[1,null]}}`,
		`{"id":null,"owner":null,"tags":[],"limits":{},"unknown":true}`,
	}
	for _, in := range inputs {
		vd, okd, errd := md.FromJSON(in)
		vg, okg, errg := mg.FromJSON(in)
		require.NoError(t, errd, in)
		require.NoError(t, errg, in)
		assert.Equal(t, okd, okg)
		assert.Equal(t, vd, vg, in)

		sd, err := md.ToString(vd)
		require.NoError(t, err)
		sg, err := mg.ToString(vg)
		require.NoError(t, err)
		assert.Equal(t, sd, sg)
	}
}

func TestGeneratedMatchesDerivedErrors(t *testing.T) {
	rd, rg := registries(t)
	md, mg := mapper[account](t, rd), mapper[account](t, rg)

	inputs := []struct {
		in string
		is error
	}{
		{`[]`, jsonshape.ErrShapeMismatch},
		{`{"balance":"x"}`, jsonshape.ErrShapeMismatch},
		{`{"owner":{"name":5}}`, jsonshape.ErrShapeMismatch},
		{`{"tags":["ok",1]}`, jsonshape.ErrShapeMismatch},
		{`{"owner":{"email":"no name"}}`, nil},
	}
	for _, tc := range inputs {
		_, _, errd := md.FromJSON(tc.in)
		_, _, errg := mg.FromJSON(tc.in)
		require.Error(t, errd, tc.in)
		require.Error(t, errg, tc.in)
		assert.Equal(t, errd.Error(), errg.Error(), tc.in)
		if tc.is != nil {
			assert.ErrorIs(t, errg, tc.is)
		}

		var pd, pg *jsonshape.PathError
		if errors.As(errd, &pd) {
			require.ErrorAs(t, errg, &pg)
			assert.Equal(t, pd.Path, pg.Path)
		}
	}
}

func TestGeneratedMatchesDerivedConstructors(t *testing.T) {
	rd, rg := registries(t)
	ld, lg := mapper[ledger](t, rd), mapper[ledger](t, rg)

	for _, in := range []string{
		`{"name":"ops","entries":[3,1,2]}`,
		`{"name":"ops","entries":[3],"note":"audited"}`,
		`{"note":null}`,
	} {
		vd, _, err := ld.FromJSON(in)
		require.NoError(t, err)
		vg, _, err := lg.FromJSON(in)
		require.NoError(t, err)
		assert.Equal(t, vd, vg, in)
	}

	v, _, err := lg.FromJSON(`{"name":"ops"}`)
	require.NoError(t, err)
	assert.Equal(t, "opened", v.Note)
}

func TestGeneratedAdapterOnDefaultRegistry(t *testing.T) {
	// Registry nil resolves fields through jsonshape.Default()
	a := &ownerAdapter{}
	v, err := a.Encode(owner{Name: "n", Email: "e"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"n","email":"e"}`, v.String())

	got, err := a.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, owner{Name: "n", Email: "e"}, got)
}
