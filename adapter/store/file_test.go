package store

import (
	"time"

	"github.com/pandaqa/pandaqa"
	"github.com/pandaqa/pandaqa/pandaqatest"
	"github.com/pandaqa/pandaqa/pkg/authz"
)

var (
	testNow = time.Now().UTC()
	gen     = pandaqatest.New(testNow.UnixNano(), testNow)
)

func (s *StoreTestSuite) TestFindFile() {
	ctx, cancel := testContext()
	defer cancel()

	var (
		aFile = gen.File(
			pandaqatest.WithFileAuthorID(pandaqa.AuthorID(testPrincipal.ID())),
			pandaqatest.WithFileEmbedder("lmstudio"),
			pandaqatest.WithFileRetriever("redis"),
		)
	)

	s.Require().NoError(s.adapter.SavePrincipal(ctx, testPrincipal), "error saving principal")
	s.Require().NoError(s.adapter.SaveFiles(ctx, aFile), "error saving file")

	s.Run("Find file without partial", func() {
		savedFile, err := s.adapter.FindFile(ctx, aFile.ID, authz.NilPartial)
		s.Require().NoError(err)
		s.Equal(aFile, savedFile)
	})

	s.Run("Find file with partial", func() {
		partial := authz.FilterBy("embedder", "lmstudio").And("retriever", "weaviate")
		_, err := s.adapter.FindFile(ctx, aFile.ID, partial)
		s.Require().ErrorIs(err, pandaqa.ErrNotFound)
	})
}

func (s *StoreTestSuite) TestSaveFiles_Upsert() {
	ctx, cancel := testContext()
	defer cancel()

	var (
		now   = time.Now().UTC().Truncate(time.Millisecond)
		file1 = gen.File(
			pandaqatest.WithFileAuthorID(pandaqa.AuthorID(testPrincipal.ID())),
			pandaqatest.WithFileStatus(pandaqa.FileStatusUploaded),
			pandaqatest.WithFileCreated(now),
			pandaqatest.WithFileUpdated(now),
		)
		file2 = gen.File(
			pandaqatest.WithFileAuthorID(pandaqa.AuthorID(testPrincipal.ID())),
			pandaqatest.WithFileStatus(pandaqa.FileStatusUploaded),
			pandaqatest.WithFileCreated(now),
			pandaqatest.WithFileUpdated(now),
		)
	)

	s.Require().NoError(s.adapter.SavePrincipal(ctx, testPrincipal), "error saving principal")
	s.Require().NoError(s.adapter.SaveFiles(ctx, file1, file2), "error saving files")

	savedFile1, err := s.adapter.FindFile(ctx, file1.ID, authz.NilPartial)
	s.Require().NoError(err)
	s.Equal(file1, savedFile1)
	s.Equal(pandaqa.FileStatusUploaded, savedFile1.Status)

	// Move file2 to processing and upsert, file1 stays as is
	file2.Status = pandaqa.FileStatusProcessing
	file2.Updated = pandaqa.Time{T: now.Add(time.Second)}
	s.Require().NoError(s.adapter.SaveFiles(ctx, file1, file2), "error saving files again")

	sameFile1, err := s.adapter.FindFile(ctx, file1.ID, authz.NilPartial)
	s.Require().NoError(err)
	s.Equal(file1, sameFile1)

	updatedFile2, err := s.adapter.FindFile(ctx, file2.ID, authz.NilPartial)
	s.Require().NoError(err)
	s.Equal(pandaqa.FileStatusProcessing, updatedFile2.Status)
	s.Equal(file2.Updated, updatedFile2.Updated)
}

func (s *StoreTestSuite) TestListFiles() {
	ctx, cancel := testContext()
	defer cancel()

	var (
		now   = time.Now().UTC().Truncate(time.Millisecond)
		file1 = gen.File(
			pandaqatest.WithFileAuthorID(pandaqa.AuthorID(testPrincipal.ID())),
			pandaqatest.WithFileStatus(pandaqa.FileStatusUploaded),
			pandaqatest.WithFileCreated(now.Add(-time.Minute)),
			pandaqatest.WithFileUpdated(now.Add(-time.Minute)),
		)
		file2 = gen.File(
			pandaqatest.WithFileAuthorID(pandaqa.AuthorID(testPrincipal.ID())),
			pandaqatest.WithFileStatus(pandaqa.FileStatusProcessing),
			pandaqatest.WithFileCreated(now),
			pandaqatest.WithFileUpdated(now),
		)
	)

	s.Require().NoError(s.adapter.SavePrincipal(ctx, testPrincipal), "error saving principal")
	s.Require().NoError(s.adapter.SaveFiles(ctx, file1, file2), "error saving files")

	s.Run("List all files, newest first", func() {
		files, err := s.adapter.ListFiles(ctx, pandaqa.FileFilter{}, authz.NilPartial, pandaqa.SortParams{})
		s.Require().NoError(err)
		s.Require().Len(files, 2)
		s.Equal(file2.ID, files[0].ID)
		s.Equal(file1.ID, files[1].ID)
	})

	s.Run("Filter by status", func() {
		files, err := s.adapter.ListFiles(ctx, pandaqa.FileFilter{
			Status: pandaqa.FileStatusUploaded,
		}, authz.NilPartial, pandaqa.SortParams{})
		s.Require().NoError(err)
		s.Require().Len(files, 1)
		s.Equal(file1.ID, files[0].ID)
	})

	s.Run("Filter by last updated before", func() {
		files, err := s.adapter.ListFiles(ctx, pandaqa.FileFilter{
			LastUpdatedBefore: pandaqa.Time{T: now.Add(-30 * time.Second)},
		}, authz.NilPartial, pandaqa.SortParams{})
		s.Require().NoError(err)
		s.Require().Len(files, 1)
		s.Equal(file1.ID, files[0].ID)
	})

	s.Run("List with limit", func() {
		files, err := s.adapter.ListFiles(ctx, pandaqa.FileFilter{}, authz.NilPartial, pandaqa.SortParams{
			Limit: 1,
			By:    `f."created"`,
			Order: pandaqa.SortOrderAsc,
		})
		s.Require().NoError(err)
		s.Require().Len(files, 1)
		s.Equal(file1.ID, files[0].ID)
	})
}

func (s *StoreTestSuite) TestDeleteFiles() {
	ctx, cancel := testContext()
	defer cancel()

	var (
		aFile = gen.File(pandaqatest.WithFileAuthorID(pandaqa.AuthorID(testPrincipal.ID())))
	)

	s.Require().NoError(s.adapter.SavePrincipal(ctx, testPrincipal), "error saving principal")
	s.Require().NoError(s.adapter.SaveFiles(ctx, aFile), "error saving file")

	files, err := s.adapter.ListFiles(ctx, pandaqa.FileFilter{}, authz.NilPartial, pandaqa.SortParams{})
	s.Require().NoError(err)
	s.Len(files, 1)

	err = s.adapter.DeleteFiles(ctx, aFile)
	s.Require().NoError(err)

	files, err = s.adapter.ListFiles(ctx, pandaqa.FileFilter{}, authz.NilPartial, pandaqa.SortParams{})
	s.Require().NoError(err)
	s.Len(files, 0)
}
