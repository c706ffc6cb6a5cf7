package timegetter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TimeGetterTestSuite struct {
	suite.Suite
	tg *TimeGetter
}

func (s *TimeGetterTestSuite) SetupTest() {
	s.tg = NewTimeGetter().(*TimeGetter)
}

func (s *TimeGetterTestSuite) TestGetTime() {
	before := time.Now().Truncate(time.Millisecond)

	result := s.tg.GetTime()

	after := time.Now()

	s.NotZero(result)
	s.False(result.Before(before))
	s.False(result.After(after))
	s.Equal(time.UTC, result.Location())
}

// Stored dates have millisecond precision, so the result should never carry
// anything smaller.
func (s *TimeGetterTestSuite) TestGetTimePrecision() {
	s.Zero(s.tg.GetTime().Nanosecond() % int(time.Millisecond))
}

func TestTimeGetterTestSuite(t *testing.T) {
	suite.Run(t, new(TimeGetterTestSuite))
}
