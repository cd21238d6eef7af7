package db

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
)

func TestJournalRepo_InsertBatch(t *testing.T) {
	t.Run("should keep the keys in request order", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		want := []domain.Key{domain.KeyForm, domain.KeyFormDraft, domain.KeyAttachments}
		id := testBatch(t, repo, want...)

		batches, err := repo.GetBatches()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(batches) != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", len(batches))
		}
		if batches[0].ID != id {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", id, batches[0].ID)
		}
		if !reflect.DeepEqual(batches[0].Keys, want) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", want, batches[0].Keys)
		}
	})

	t.Run("should fail on a duplicate batch ID", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		id := testBatch(t, repo, domain.KeyProjects)
		err := repo.InsertBatch(&domain.BatchRecord{ID: id, Keys: []domain.Key{domain.KeyProjects}})
		if err == nil {
			t.Fatal("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should return an empty key list for a batch without keys", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		testBatch(t, repo)
		batches, err := repo.GetBatches()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if batches[0].Keys == nil || len(batches[0].Keys) != 0 {
			t.Fatalf("\nwanted:\nempty keys\ngot:\n%v", batches[0].Keys)
		}
	})
}

func TestJournalRepo_InsertFetch(t *testing.T) {
	t.Run("should store an issued fetch without outcome", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		batchID := testBatch(t, repo, domain.KeyProject)
		fetch := testFetch(t, repo, batchID, domain.KeyProject)

		got, err := repo.GetFetch(fetch.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Key != domain.KeyProject || got.BatchID != batchID || got.Epoch != 3 {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", fetch, got)
		}
		if got.Outcome != "" || got.StatusCode != 0 || !got.RespondedAt.IsZero() {
			t.Fatalf("\nwanted:\nno response fields\ngot:\n%+v", got)
		}
		if !bytes.Equal(got.RequestRaw, fetch.RequestRaw) {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", fetch.RequestRaw, got.RequestRaw)
		}
	})

	t.Run("should fail when the batch does not exist", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		err := repo.InsertFetch(&domain.FetchRecord{
			ID:      uuid.New(),
			BatchID: uuid.New(),
			Key:     domain.KeyProject,
			Method:  "GET",
			URL:     "https://central.example/v1/projects/1",
		})
		if err == nil {
			t.Fatal("\nwanted:\nforeign key error\ngot:\nnil")
		}
	})
}

func TestJournalRepo_CompleteFetch(t *testing.T) {
	t.Run("should store the outcome and response", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		batchID := testBatch(t, repo, domain.KeyProject)
		fetch := testFetch(t, repo, batchID, domain.KeyProject)
		completeTestFetch(t, repo, fetch, "success")

		got, err := repo.GetFetch(fetch.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Outcome != "success" || got.StatusCode != 200 || got.ContentType != "application/json" {
			t.Fatalf("\nwanted:\nsuccess 200 application/json\ngot:\n%s %d %s", got.Outcome, got.StatusCode, got.ContentType)
		}
		if !bytes.Equal(got.ResponseRaw, fetch.ResponseRaw) {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", fetch.ResponseRaw, got.ResponseRaw)
		}
		if got.RespondedAt.IsZero() {
			t.Fatal("\nwanted:\nresponded at\ngot:\nzero time")
		}
	})

	t.Run("should keep the stored prettified dump when none is given", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		batchID := testBatch(t, repo, domain.KeyProject)
		fetch := testFetch(t, repo, batchID, domain.KeyProject)
		fetch.Prettified = "pretty request"
		if _, err := repo.dbConn.Exec(`UPDATE fetches SET prettified = ? WHERE id = ?`, fetch.Prettified, fetch.ID); err != nil {
			t.Fatalf("setting prettified : %v", err)
		}

		fetch.Prettified = ""
		fetch.Outcome = "superseded"
		if err := repo.CompleteFetch(fetch); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetFetch(fetch.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Prettified != "pretty request" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "pretty request", got.Prettified)
		}
	})

	t.Run("should return an error for an unknown fetch", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		id := uuid.New()
		err := repo.CompleteFetch(&domain.FetchRecord{ID: id, Key: domain.KeyProject, Outcome: "success"})
		if err == nil {
			t.Fatal("\nwanted:\nerror\ngot:\nnil")
		}
		if !strings.Contains(err.Error(), id.String()) {
			t.Fatalf("\nwanted message to contain:\n%s\ngot:\n%v", id, err)
		}
	})
}

func TestJournalRepo_GetFetchSummaries(t *testing.T) {
	t.Run("should return summaries with the derived host", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		batchID := testBatch(t, repo, domain.KeyProject, domain.KeyForms)
		first := testFetch(t, repo, batchID, domain.KeyProject)
		second := testFetch(t, repo, batchID, domain.KeyForms)
		completeTestFetch(t, repo, first, "success")

		got, err := repo.GetFetchSummaries()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}
		if got[0].ID != first.ID || got[1].ID != second.ID {
			t.Fatalf("\nwanted:\n%s %s\ngot:\n%s %s", first.ID, second.ID, got[0].ID, got[1].ID)
		}
		if got[0].Host != "central.example" {
			t.Fatalf("\nwanted:\ncentral.example\ngot:\n%s", got[0].Host)
		}
		if got[0].Outcome != "success" || got[1].Outcome != "" {
			t.Fatalf("\nwanted:\nsuccess and pending\ngot:\n%q and %q", got[0].Outcome, got[1].Outcome)
		}
	})
}

func TestJournalRepo_GetFetchesByKey(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	batchID := testBatch(t, repo, domain.KeyForm, domain.KeyForm, domain.KeyUsers)
	testFetch(t, repo, batchID, domain.KeyForm)
	testFetch(t, repo, batchID, domain.KeyForm)
	testFetch(t, repo, batchID, domain.KeyUsers)

	got, err := repo.GetFetchesByKey(domain.KeyForm)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
	}
	for _, summary := range got {
		if summary.Key != domain.KeyForm {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", domain.KeyForm, summary.Key)
		}
	}
}

func TestJournalRepo_GetBatchFetches(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	first := testBatch(t, repo, domain.KeyProject)
	second := testBatch(t, repo, domain.KeyProject)
	testFetch(t, repo, first, domain.KeyProject)
	want := testFetch(t, repo, second, domain.KeyProject)

	got, err := repo.GetBatchFetches(second)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if len(got) != 1 || got[0].ID != want.ID {
		t.Fatalf("\nwanted:\n[%s]\ngot:\n%v", want.ID, got)
	}
}
