package seed

import "github.com/iliyamo/experience-booking/internal/model"

// Experiences returns a fresh copy of the default catalog.
func Experiences() []*model.Experience {
	return []*model.Experience{
		{
			Name:        "Skydiving Adventure",
			Location:    "Dubai, UAE",
			Description: "Experience the thrill of free-falling from 13,000 feet with stunning views of Palm Jumeirah.",
			Image:       "https://images.unsplash.com/photo-1504196606672-aef5c9cefc92",
			Price:       499,
			Dates:       []string{"2025-11-10", "2025-11-17", "2025-11-24"},
			Slots:       []model.Slot{{Time: "09:00 AM", Available: 5}, {Time: "11:00 AM", Available: 3}, {Time: "01:00 PM", Available: 4}},
		},
		{
			Name:        "Desert Safari Ride",
			Location:    "Rajasthan, India",
			Description: "Explore the golden dunes on a thrilling desert safari with camel rides and cultural shows.",
			Image:       "https://images.unsplash.com/photo-1507525428034-b723cf961d3e",
			Price:       150,
			Dates:       []string{"2025-12-05", "2025-12-10", "2025-12-20"},
			Slots:       []model.Slot{{Time: "04:00 PM", Available: 10}, {Time: "06:00 PM", Available: 7}},
		},
		{
			Name:        "Scuba Diving Experience",
			Location:    "Goa, India",
			Description: "Dive into the clear blue waters of the Arabian Sea and explore vibrant coral reefs.",
			Image:       "https://images.unsplash.com/photo-1507525428034-b723cf961d3e",
			Price:       250,
			Dates:       []string{"2025-11-15", "2025-11-22", "2025-11-29"},
			Slots:       []model.Slot{{Time: "08:00 AM", Available: 6}, {Time: "10:00 AM", Available: 8}},
		},
		{
			Name:        "Hot Air Balloon Ride",
			Location:    "Cappadocia, Turkey",
			Description: "Float over the fairy chimneys and unique landscapes of Cappadocia during sunrise.",
			Image:       "https://images.unsplash.com/photo-1645221559842-5a542abbb40b",
			Price:       300,
			Dates:       []string{"2025-11-18", "2025-11-25", "2025-12-02"},
			Slots:       []model.Slot{{Time: "06:00 AM", Available: 12}, {Time: "07:30 AM", Available: 10}},
		},
		{
			Name:        "Paragliding Experience",
			Location:    "Bir Billing, India",
			Description: "Soar over the Himalayas and feel the wind beneath your wings in this paragliding hotspot.",
			Image:       "https://images.unsplash.com/photo-1645221559842-5a542abbb40b",
			Price:       180,
			Dates:       []string{"2025-11-12", "2025-11-19", "2025-11-26"},
			Slots:       []model.Slot{{Time: "10:00 AM", Available: 8}, {Time: "12:00 PM", Available: 6}},
		},
		{
			Name:        "Trekking to Triund",
			Location:    "Himachal Pradesh, India",
			Description: "Enjoy a scenic trek through pine forests and panoramic mountain views of the Dhauladhar range.",
			Image:       "https://images.unsplash.com/photo-1501785888041-af3ef285b470",
			Price:       120,
			Dates:       []string{"2025-11-08", "2025-11-15", "2025-11-22"},
			Slots:       []model.Slot{{Time: "06:00 AM", Available: 15}, {Time: "08:00 AM", Available: 10}},
		},
		{
			Name:        "River Rafting",
			Location:    "Rishikesh, India",
			Description: "Conquer the rapids of the Ganges with professional rafting guides.",
			Image:       "https://images.unsplash.com/photo-1627241129356-137242cf14f0",
			Price:       100,
			Dates:       []string{"2025-11-05", "2025-11-12", "2025-11-19"},
			Slots:       []model.Slot{{Time: "09:00 AM", Available: 12}, {Time: "11:00 AM", Available: 9}},
		},
		{
			Name:        "Snow Skiing Experience",
			Location:    "Gulmarg, India",
			Description: "Hit the slopes and enjoy a full day of skiing with professional instructors.",
			Image:       "https://images.unsplash.com/photo-1604537529428-15bcbeecfe4d",
			Price:       400,
			Dates:       []string{"2025-12-15", "2025-12-20", "2025-12-25"},
			Slots:       []model.Slot{{Time: "09:00 AM", Available: 6}, {Time: "01:00 PM", Available: 4}},
		},
		{
			Name:        "Scenic Helicopter Tour",
			Location:    "New York City, USA",
			Description: "Fly over Manhattan’s skyline and enjoy aerial views of the Statue of Liberty and Central Park.",
			Image:       "https://images.unsplash.com/photo-1483728642387-6c3bdd6c93e5",
			Price:       550,
			Dates:       []string{"2025-11-20", "2025-11-27", "2025-12-04"},
			Slots:       []model.Slot{{Time: "10:00 AM", Available: 5}, {Time: "02:00 PM", Available: 4}},
		},
		{
			Name:        "Jungle Safari Experience",
			Location:    "Jim Corbett, India",
			Description: "Witness exotic wildlife and lush greenery in India's oldest national park.",
			Image:       "https://images.unsplash.com/photo-1558981285-6f0c94958bb6",
			Price:       220,
			Dates:       []string{"2025-11-09", "2025-11-16", "2025-11-23"},
			Slots:       []model.Slot{{Time: "07:00 AM", Available: 10}, {Time: "04:00 PM", Available: 8}},
		},
	}
}

// Promos returns the default promo codes.
func Promos() []*model.Promo {
	return []*model.Promo{
		{Code: "SAVE10", DiscountType: model.DiscountPercentage, DiscountValue: 10, MaxUses: 100, Active: true},
		{Code: "FLAT50", DiscountType: model.DiscountFlat, DiscountValue: 50, MaxUses: 100, Active: true},
	}
}
