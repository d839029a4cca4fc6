package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/invest-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// used_by_user_id is the string-typed hash key of used_by_user_id-index. A
// NULL attribute there fails the whole PutItem with a type-mismatch
// ValidationException, so an unredeemed referral must marshal with the
// attribute absent, not NULL.
func TestReferralMarshal_UnredeemedOmitsUsedBy(t *testing.T) {
	item, err := attributevalue.MarshalMap(&domain.Referral{
		Code:          "AAAA2222",
		CreatorUserID: "usr-1",
		ExpiresAt:     time.Now().Add(30 * 24 * time.Hour),
		CreatedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)

	_, present := item["used_by_user_id"]
	assert.False(t, present, "used_by_user_id must be absent on an unredeemed referral")
}

func TestReferralMarshal_RedeemedKeepsUsedBy(t *testing.T) {
	usedBy := "usr-2"
	item, err := attributevalue.MarshalMap(&domain.Referral{
		Code:          "AAAA2222",
		CreatorUserID: "usr-1",
		IsUsed:        true,
		UsedByUserID:  &usedBy,
		ExpiresAt:     time.Now().Add(30 * 24 * time.Hour),
		CreatedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)

	av, present := item["used_by_user_id"]
	require.True(t, present)
	s, ok := av.(*types.AttributeValueMemberS)
	require.True(t, ok, "used_by_user_id must marshal as a string to match the GSI key type")
	assert.Equal(t, "usr-2", s.Value)
}
