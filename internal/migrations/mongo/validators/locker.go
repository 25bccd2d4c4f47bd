package validators

import "go.mongodb.org/mongo-driver/bson"

// LockerValidator mirrors model.Locker: occupant fields are present exactly
// when the locker is occupied.
var LockerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "status"},
		"additionalProperties": false,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"status": bson.M{
				"enum": []string{"available", "occupied"},
			},

			"occupant_tag": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"occupied_since": bson.M{
				"bsonType": "date",
			},
		},

		"oneOf": []bson.M{
			{
				"properties": bson.M{"status": bson.M{"enum": []string{"available"}}},
				"not":        bson.M{"required": []string{"occupant_tag"}},
			},
			{
				"properties": bson.M{"status": bson.M{"enum": []string{"occupied"}}},
				"required":   []string{"occupant_tag", "occupied_since"},
			},
		},
	},
}
