package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

func rec(id, company, title string, lastEvent time.Time) *model.ApplicationRecord {
	return &model.ApplicationRecord{
		ID:            id,
		Company:       company,
		Title:         title,
		LastEventTime: lastEvent,
	}
}

func TestFindExactTitlePreferred(t *testing.T) {
	now := time.Now()
	r := NewResolver([]*model.ApplicationRecord{
		rec("1", "Initech", "Backend Engineer", now),
		rec("2", "Initech", "Staff Engineer", now.Add(-time.Hour)),
	})

	got := r.Find("Initech", "Staff Engineer")
	assert.Equal(t, "2", got.ID)
}

func TestFindTitleNormalized(t *testing.T) {
	r := NewResolver([]*model.ApplicationRecord{
		rec("1", "Initech", "Backend Engineer", time.Now()),
	})

	got := r.Find("initech", "  BACKEND ENGINEER ")
	assert.Equal(t, "1", got.ID)
}

func TestFindMostRecentWhenTitleUnresolved(t *testing.T) {
	now := time.Now()
	r := NewResolver([]*model.ApplicationRecord{
		rec("old", "Hooli", "SRE", now.Add(-48*time.Hour)),
		rec("new", "Hooli", "Data Engineer", now),
	})

	got := r.Find("Hooli", model.Unresolved)
	assert.Equal(t, "new", got.ID)
}

func TestFindMostRecentWhenNoExactTitle(t *testing.T) {
	now := time.Now()
	r := NewResolver([]*model.ApplicationRecord{
		rec("old", "Hooli", "SRE", now.Add(-48*time.Hour)),
		rec("new", "Hooli", "Data Engineer", now),
	})

	got := r.Find("Hooli", "Platform Engineer")
	assert.Equal(t, "new", got.ID)
}

func TestFindUnresolvedCompanySkips(t *testing.T) {
	r := NewResolver([]*model.ApplicationRecord{
		rec("1", "Initech", "Backend Engineer", time.Now()),
	})

	assert.Nil(t, r.Find(model.Unresolved, "Backend Engineer"))
	assert.Nil(t, r.Find("", "Backend Engineer"))
}

func TestFindNoMatch(t *testing.T) {
	r := NewResolver([]*model.ApplicationRecord{
		rec("1", "Initech", "Backend Engineer", time.Now()),
	})

	assert.Nil(t, r.Find("Globex", "Backend Engineer"))
}

func TestAddVisibleToLaterLookups(t *testing.T) {
	r := NewResolver(nil)
	assert.Nil(t, r.Find("Initech", "Backend Engineer"))

	r.Add(rec("1", "Initech", "Backend Engineer", time.Now()))
	got := r.Find("Initech", "Backend Engineer")
	assert.Equal(t, "1", got.ID)
}

func TestAddIgnoresUnresolvedCompany(t *testing.T) {
	r := NewResolver(nil)
	r.Add(rec("1", model.Unresolved, "Backend Engineer", time.Now()))
	assert.Nil(t, r.Find(model.Unresolved, "Backend Engineer"))
}
