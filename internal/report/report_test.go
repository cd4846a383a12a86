// internal/report/report_test.go
package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-heat-harvester/internal/model"
)

func TestWriter(t *testing.T) {
	t.Run("writes header and one row per window", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewWriter(&buf)

		require.NoError(t, w.Write(model.ActivityWindow{CommentID: 100, IssueID: 10, CommitsBefore: 7, CommitsAfter: 3}))
		require.NoError(t, w.Write(model.ActivityWindow{CommentID: 101, IssueID: 10, CommitsBefore: 0, CommitsAfter: 12}))
		require.NoError(t, w.Flush())

		assert.Equal(t,
			"id_comment,id_issue,commits_before,commits_after\n100,10,7,3\n101,10,0,12\n",
			buf.String())
	})

	t.Run("empty report still carries the header", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewWriter(&buf)

		require.NoError(t, w.Flush())

		assert.Equal(t, "id_comment,id_issue,commits_before,commits_after\n", buf.String())
	})
}
