package reel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papermill_reel_tracker/models"
	"papermill_reel_tracker/reel"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r, err := f.svc.Create(ctx, reel.CreateInput{
		ReelNo: " R-100 ", Size: "70x100", GSM: "58", Quality: "Maplitho", Mill: "North", Weight: "512.5",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "R-100", r.ReelNo)
	assert.Equal(t, 512.5, r.Weight)
	assert.Equal(t, models.StagePending, r.Stage())
	assert.Empty(t, r.AssignedTo)
	assert.Nil(t, r.RuledDate)
	assert.Nil(t, r.ReamWeight)
	assert.Equal(t, []reel.EventType{reel.EventCreated}, f.pub.types())

	got, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ReelNo, got.ReelNo)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	good := reel.CreateInput{ReelNo: "R-1", Size: "70x100", GSM: "58", Quality: "Q", Mill: "M", Weight: "500"}

	cases := []struct {
		name  string
		edit  func(*reel.CreateInput)
		field string
	}{
		{"missing reel number", func(in *reel.CreateInput) { in.ReelNo = "  " }, "reelNo"},
		{"missing mill", func(in *reel.CreateInput) { in.Mill = "" }, "mill"},
		{"weight not a number", func(in *reel.CreateInput) { in.Weight = "heavy" }, "weight"},
		{"zero weight", func(in *reel.CreateInput) { in.Weight = "0" }, "weight"},
		{"negative weight", func(in *reel.CreateInput) { in.Weight = "-3" }, "weight"},
		{"infinite weight", func(in *reel.CreateInput) { in.Weight = "Inf" }, "weight"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := good
			tc.edit(&in)
			_, err := f.svc.Create(ctx, in)
			require.ErrorIs(t, err, reel.ErrValidation)
			var ve *reel.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)

			all, err := f.svc.List(ctx, reel.Filter{Kind: reel.FilterAll})
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCreateChecksOptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.AddOption(ctx, models.DimensionMill, "North")
	require.NoError(t, err)

	in := reel.CreateInput{ReelNo: "R-1", Size: "70x100", GSM: "58", Quality: "Q", Mill: "South", Weight: "500"}
	_, err = f.svc.Create(ctx, in)
	assert.ErrorIs(t, err, reel.ErrValidation)

	// dimensions with no options accept anything
	in.Mill = "North"
	_, err = f.svc.Create(ctx, in)
	assert.NoError(t, err)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pending := f.create(t, "P-1", "500")
	a1 := f.assigned(t, "A-1", "op1")
	a2 := f.assigned(t, "A-2", "op2")
	done := f.assigned(t, "D-1", "op1")
	_, err := f.svc.RecordOutput(ctx, "op1", done.ID, output("30", "250", "70", "50"))
	require.NoError(t, err)

	ids := func(rs []models.Reel) []string {
		out := []string{}
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	cases := []struct {
		name string
		f    reel.Filter
		want []string
	}{
		{"all", reel.Filter{Kind: reel.FilterAll}, []string{pending.ID, a1.ID, a2.ID, done.ID}},
		{"unassigned", reel.Unassigned(), []string{pending.ID}},
		{"assigned open", reel.AssignedOpen("op1"), []string{a1.ID}},
		{"completed", reel.Completed(), []string{done.ID}},
		{"completed by", reel.CompletedBy("op1"), []string{done.ID}},
		{"completed by other", reel.CompletedBy("op2"), []string{}},
		{"search", reel.Filter{Kind: reel.FilterAll, ReelNo: "a-"}, []string{a1.ID, a2.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.svc.List(ctx, tc.f)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}

	_, err = f.svc.List(ctx, reel.AssignedOpen(""))
	assert.ErrorIs(t, err, reel.ErrValidation)
	_, err = f.svc.List(ctx, reel.Filter{Kind: "bogus"})
	assert.ErrorIs(t, err, reel.ErrValidation)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.create(t, "R-1", "500")

	no, w := " R-1b ", 480.0
	got, err := f.svc.Update(ctx, r.ID, models.DetailPatch{ReelNo: &no, Weight: &w})
	require.NoError(t, err)
	assert.Equal(t, "R-1b", got.ReelNo)
	assert.Equal(t, 480.0, got.Weight)
	assert.Equal(t, "58", got.GSM)

	_, err = f.svc.Update(ctx, r.ID, models.DetailPatch{})
	assert.ErrorIs(t, err, reel.ErrValidation)

	bad := -1.0
	_, err = f.svc.Update(ctx, r.ID, models.DetailPatch{Weight: &bad})
	assert.ErrorIs(t, err, reel.ErrValidation)

	_, err = f.svc.Update(ctx, "missing", models.DetailPatch{Weight: &w})
	assert.ErrorIs(t, err, reel.ErrNotFound)
}

func TestAnnotateAtAnyStage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.assigned(t, "R-1", "op1")
	_, err := f.svc.RecordOutput(ctx, "op1", r.ID, output("30", "0", "70", "50"))
	require.NoError(t, err)

	got, err := f.svc.Annotate(ctx, r.ID, "edge damage on first 20 m")
	require.NoError(t, err)
	assert.Equal(t, "edge damage on first 20 m", got.Remarks)
	assert.Equal(t, 30, got.OutputReams)
	assert.NotNil(t, got.RuledDate)
}

func TestDeleteTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.create(t, "R-1", "500")

	require.NoError(t, f.svc.Delete(ctx, r.ID))
	err := f.svc.Delete(ctx, r.ID)
	require.ErrorIs(t, err, reel.ErrNotFound)
	var nf *reel.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, r.ID, nf.ID)

	_, err = f.svc.Get(ctx, r.ID)
	assert.ErrorIs(t, err, reel.ErrNotFound)
}

func TestStoreFailureLeavesRecordUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.create(t, "R-1", "500")

	f.store.failOn(r.ID, true)
	_, err := f.svc.Assign(ctx, r.ID, "op1")
	require.ErrorIs(t, err, reel.ErrStore)
	assert.ErrorIs(t, err, errDisk)

	got, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AssignedTo)
	assert.Nil(t, got.AssignedAt)
	assert.Equal(t, []reel.EventType{reel.EventCreated}, f.pub.types())
}
