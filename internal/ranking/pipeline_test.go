package ranking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IBM07/HireWire/internal/types"
)

type fakeSource struct {
	postings []types.JobPosting
	err      error
	filters  []types.PostingFilter
}

func (f *fakeSource) QueryPostings(_ context.Context, filter types.PostingFilter) ([]types.JobPosting, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.JobPosting, len(f.postings))
	copy(out, f.postings)
	return out, nil
}

func TestPipeline_Run(t *testing.T) {
	source := &fakeSource{postings: []types.JobPosting{
		posting("Go Developer", "Acme", types.RawSkills(`["go","sql"]`)),
		posting("Python Developer", "Globex", types.RawSkills(`["python","aws","docker"]`)),
		posting("Go Lead", "Initech", types.RawSkills(`["go"]`)),
	}}
	p := NewPipeline(source)

	page, err := p.Run(context.Background(), types.FilterCriteria{
		Skills:   "Go, python",
		Search:   "go",
		Location: " Berlin ",
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)

	require.Len(t, source.filters, 1)
	assert.Equal(t, "Berlin", source.filters[0].Location)
	assert.Equal(t, "go", source.filters[0].Search)

	require.Len(t, page.Records, 3)
	assert.Equal(t, "Go Lead", page.Records[0].Posting.Title)
	assert.Equal(t, 100, page.Records[0].MatchScore)
	assert.Equal(t, "Go Developer", page.Records[1].Posting.Title)
	assert.Equal(t, "Python Developer", page.Records[2].Posting.Title)
	assert.Equal(t, 33, page.Records[2].MatchScore)
	assert.Equal(t, 3, page.Pagination.TotalCount)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestPipeline_MinScoreAppliedBeforeCount(t *testing.T) {
	var postings []types.JobPosting
	for i := 0; i < 6; i++ {
		skillsJSON := `["go","rust"]`
		if i%2 == 0 {
			skillsJSON = `["go"]`
		}
		postings = append(postings, posting(fmt.Sprintf("job-%d", i), "Acme", types.RawSkills(skillsJSON)))
	}
	p := NewPipeline(&fakeSource{postings: postings})

	page, err := p.Run(context.Background(), types.FilterCriteria{Skills: "go", MinScore: 100, Page: 1, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Pagination.TotalCount)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	for _, r := range page.Records {
		assert.GreaterOrEqual(t, r.MatchScore, 100)
	}
}

func TestPipeline_ClampsPageSize(t *testing.T) {
	postings := make([]types.JobPosting, 30)
	for i := range postings {
		postings[i] = posting(fmt.Sprintf("job-%d", i), "Acme", types.SkillField{})
	}
	p := NewPipeline(&fakeSource{postings: postings}, WithMaxPageSize(25))

	page, err := p.Run(context.Background(), types.FilterCriteria{Page: 0, PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 25, page.Pagination.PageSize)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Len(t, page.Records, 25)
}

func TestPipeline_StorageFailure(t *testing.T) {
	cause := errors.New("connection refused")
	p := NewPipeline(&fakeSource{err: cause})

	page, err := p.Run(context.Background(), types.FilterCriteria{Page: 1, PageSize: 10})
	assert.Nil(t, page)
	require.Error(t, err)

	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.ErrorIs(t, err, cause)
}

func TestPipeline_Idempotent(t *testing.T) {
	source := &fakeSource{}
	for i := 0; i < 12; i++ {
		p := posting(fmt.Sprintf("Engineer %d", i%3), "Acme", types.RawSkills(`["go","aws"]`))
		p.ID = uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", i))
		source.postings = append(source.postings, p)
	}
	p := NewPipeline(source)
	criteria := types.FilterCriteria{Skills: "go", Search: "engineer 1", Page: 2, PageSize: 5}

	first, err := p.Run(context.Background(), criteria)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), criteria)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
