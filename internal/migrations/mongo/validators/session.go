package validators

import "go.mongodb.org/mongo-driver/bson"

var SessionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"started_at",
			"ended_at",
			"outcome",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"started_at": bson.M{
				"bsonType": "date",
			},

			"ended_at": bson.M{
				"bsonType": "date",
			},

			"outcome": bson.M{
				"enum": []string{
					"none",
					"picked_up",
					"no_packages",
					"delivered",
					"timed_out",
					"denied",
					"no_locker_available",
					"aborted",
					"configuration_error",
					"failed",
				},
			},

			"identity": bson.M{
				"bsonType":  "string",
				"maxLength": 120,
			},

			"tag": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"lockers": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": []string{"int", "long"},
					"minimum":  1,
				},
			},

			"evicted": bson.M{
				"bsonType": "object",
			},
		},
	},
}
