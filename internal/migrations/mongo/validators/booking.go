package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"resource_owner_id",
			"start_time",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"resource_owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"staff": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			// Absent for point bookings.
			"end_time": bson.M{
				"bsonType": "date",
			},

			"title": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"content": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"scheduled",
					"completed",
					"cancelled",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
