package dynamo

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-market-triggers/internal/domain"
)

// DecodeDocument turns a DynamoDB item into an untyped document. Tagged
// timestamp and geopoint maps come back as domain.Timestamp and
// domain.GeoPoint; integral numbers as int64, others as float64. A nil item
// decodes to a nil document.
func DecodeDocument(item map[string]types.AttributeValue) domain.Document {
	if item == nil {
		return nil
	}
	doc := make(domain.Document, len(item))
	for k, v := range item {
		doc[k] = decodeValue(v)
	}
	return doc
}

func decodeValue(av types.AttributeValue) any {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return decodeNumber(v.Value)
	case *types.AttributeValueMemberBOOL:
		return v.Value
	case *types.AttributeValueMemberNULL:
		return nil
	case *types.AttributeValueMemberB:
		return v.Value
	case *types.AttributeValueMemberM:
		if ts, ok := domain.TimestampFromMap(v.Value); ok {
			return ts
		}
		if gp, ok := domain.GeoPointFromMap(v.Value); ok {
			return gp
		}
		m := make(map[string]any, len(v.Value))
		for k, e := range v.Value {
			m[k] = decodeValue(e)
		}
		return m
	case *types.AttributeValueMemberL:
		l := make([]any, len(v.Value))
		for i, e := range v.Value {
			l[i] = decodeValue(e)
		}
		return l
	case *types.AttributeValueMemberSS:
		return toAny(v.Value)
	case *types.AttributeValueMemberNS:
		l := make([]any, len(v.Value))
		for i, n := range v.Value {
			l[i] = decodeNumber(n)
		}
		return l
	case *types.AttributeValueMemberBS:
		l := make([]any, len(v.Value))
		for i, b := range v.Value {
			l[i] = b
		}
		return l
	}
	return nil
}

func decodeNumber(s string) any {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return f
}

func toAny(ss []string) []any {
	l := make([]any, len(ss))
	for i, s := range ss {
		l[i] = s
	}
	return l
}
