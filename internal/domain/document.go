package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TypeTag marks store-native values that are persisted as tagged maps.
const TypeTag = "__type"

const (
	typeTimestamp = "timestamp"
	typeGeoPoint  = "geopoint"
)

// Document is a decoded store document: a tree of map[string]any, []any and
// scalars, where store-native values surface as Timestamp or GeoPoint.
type Document map[string]any

// Timestamp is the store-native instant type. It is persisted as
// {__type: "timestamp", seconds, nanos} so that decoders can tell it apart
// from an ordinary string.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns t truncated to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// Millis returns milliseconds since the Unix epoch.
func (t Timestamp) Millis() int64 {
	return t.UnixMilli()
}

func (t Timestamp) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		TypeTag:   &types.AttributeValueMemberS{Value: typeTimestamp},
		"seconds": &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)},
		"nanos":   &types.AttributeValueMemberN{Value: strconv.Itoa(t.Nanosecond())},
	}}, nil
}

func (t *Timestamp) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberNULL:
		return nil
	case *types.AttributeValueMemberS:
		// Records written before the tagged layout carry RFC3339 strings.
		parsed, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		t.Time = parsed.UTC()
		return nil
	case *types.AttributeValueMemberM:
		ts, ok := TimestampFromMap(v.Value)
		if !ok {
			return fmt.Errorf("timestamp: map is not a tagged timestamp")
		}
		*t = ts
		return nil
	default:
		return fmt.Errorf("timestamp: unsupported attribute type %T", av)
	}
}

// TimestampFromMap decodes a tagged timestamp map. ok is false when m is not one.
func TimestampFromMap(m map[string]types.AttributeValue) (Timestamp, bool) {
	if !hasTag(m, typeTimestamp) {
		return Timestamp{}, false
	}
	secs, err := numberAttr(m["seconds"])
	if err != nil {
		return Timestamp{}, false
	}
	nanos, _ := numberAttr(m["nanos"])
	return Timestamp{Time: time.Unix(int64(secs), int64(nanos)).UTC()}, true
}

// GeoPoint is the store-native latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (g GeoPoint) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		TypeTag:     &types.AttributeValueMemberS{Value: typeGeoPoint},
		"latitude":  &types.AttributeValueMemberN{Value: strconv.FormatFloat(g.Latitude, 'f', -1, 64)},
		"longitude": &types.AttributeValueMemberN{Value: strconv.FormatFloat(g.Longitude, 'f', -1, 64)},
	}}, nil
}

func (g *GeoPoint) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		if _, isNull := av.(*types.AttributeValueMemberNULL); isNull {
			return nil
		}
		return fmt.Errorf("geopoint: unsupported attribute type %T", av)
	}
	gp, ok := GeoPointFromMap(m.Value)
	if !ok {
		return fmt.Errorf("geopoint: map is not a tagged geopoint")
	}
	*g = gp
	return nil
}

// GeoPointFromMap decodes a tagged geopoint map. ok is false when m is not one.
func GeoPointFromMap(m map[string]types.AttributeValue) (GeoPoint, bool) {
	if !hasTag(m, typeGeoPoint) {
		return GeoPoint{}, false
	}
	lat, err := numberAttr(m["latitude"])
	if err != nil {
		return GeoPoint{}, false
	}
	lng, err := numberAttr(m["longitude"])
	if err != nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Latitude: lat, Longitude: lng}, true
}

func hasTag(m map[string]types.AttributeValue, want string) bool {
	tag, ok := m[TypeTag].(*types.AttributeValueMemberS)
	return ok && tag.Value == want
}

func numberAttr(av types.AttributeValue) (float64, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("not a number attribute")
	}
	return strconv.ParseFloat(n.Value, 64)
}
