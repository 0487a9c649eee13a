package enricher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdudkov/scanrelay/internal/catalog"
	"github.com/kdudkov/scanrelay/pkg/model"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(map[string]*model.TalkgroupInfo{
		"1001": {Hex: "3e9", AlphaTag: "FIRE DISP", Description: "Fire Dispatch", Category: "Fire"},
		"1002": {Hex: "3ea", AlphaTag: "PD MAIN", Description: "Police Main", Category: "Police"},
	})
}

func TestEnrichHit(t *testing.T) {
	c := testCatalog()
	e := New(c)

	ev := &model.RadioEvent{EventType: model.EventCallStart, Timestamp: "2024-01-01T00:00:00Z", TalkgroupOrSource: "1001", RadioID: "5"}
	orig := *ev

	res := e.Enrich(ev)
	require.NotNil(t, res.TalkgroupInfo)

	info, _ := c.Lookup("1001")
	assert.Equal(t, info, res.TalkgroupInfo)

	// input untouched
	assert.Equal(t, orig, *ev)
	assert.Nil(t, ev.TalkgroupInfo)

	// idempotent
	assert.Same(t, res, e.Enrich(res))
}

func TestEnrichMiss(t *testing.T) {
	e := New(testCatalog())

	for _, ev := range []*model.RadioEvent{
		{EventType: model.EventLocation, TalkgroupOrSource: "9999"},
		{EventType: model.EventAffiliation},
		{EventType: model.EventCallEnd, TalkgroupOrSource: "abc"},
	} {
		orig := *ev
		res := e.Enrich(ev)

		assert.Same(t, ev, res)
		assert.Equal(t, orig, *res)
	}

	assert.Nil(t, e.Enrich(nil))
}

func TestEnrichNilCatalog(t *testing.T) {
	e := New(nil)
	ev := &model.RadioEvent{TalkgroupOrSource: "1001"}

	assert.Same(t, ev, e.Enrich(ev))
}

func TestEnrichAll(t *testing.T) {
	c, err := catalog.Load(strings.NewReader("h\n1001,3e9,FIRE,D,Fire Dispatch,Fire,Fire\n"))
	require.NoError(t, err)

	e := New(c)
	in := []*model.RadioEvent{{TalkgroupOrSource: "1001"}, {TalkgroupOrSource: "1002"}}

	out := e.EnrichAll(in)
	require.Len(t, out, 2)
	assert.Equal(t, "FIRE", out[0].TalkgroupInfo.AlphaTag)
	assert.Nil(t, out[1].TalkgroupInfo)
	assert.Nil(t, in[0].TalkgroupInfo)
}
