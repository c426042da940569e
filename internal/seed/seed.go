// Package seed loads the demo catalog and pooja list into an empty store.
package seed

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"ayush-backend/internal/models"
	"ayush-backend/internal/store"
)

// Batches is how many copies of each base product the demo catalog holds.
const Batches = 5

var baseProducts = []models.Product{
	{Name: "Ashwagandha Capsules", Price: 249, Stock: 50, Category: "Health Supplement",
		Description: "Promotes vitality and relieves stress.",
		Benefits:    "Stress relief, improved sleep, immunity booster",
		Usage:       "Take 1 capsule twice daily after meals"},
	{Name: "Triphala Juice", Price: 199, Stock: 40, Category: "Juice",
		Description: "Supports digestion and detoxification.",
		Benefits:    "Digestive health, detox, mild laxative",
		Usage:       "30ml twice a day before meals"},
	{Name: "Chyawanprash", Price: 299, Stock: 60, Category: "Tonic",
		Description: "Ayurvedic tonic for energy and immunity.",
		Benefits:    "Boosts immunity, rejuvenates health",
		Usage:       "1-2 tsp daily with milk"},
	{Name: "Neem Tablets", Price: 179, Stock: 100, Category: "Tablets",
		Description: "Promotes healthy skin and blood purification.",
		Benefits:    "Anti-acne, blood purifier, detox",
		Usage:       "1-2 tablets daily with water"},
	{Name: "Brahmi Syrup", Price: 225, Stock: 25, Category: "Syrup",
		Description: "Improves concentration and mental clarity.",
		Benefits:    "Memory enhancer, stress reliever",
		Usage:       "10ml twice daily after meals"},
	{Name: "Shatavari Powder", Price: 189, Stock: 30, Category: "Powder",
		Description: "Women's health and hormonal balance.",
		Benefits:    "Supports lactation, hormonal balance",
		Usage:       "1 tsp with warm milk daily"},
	{Name: "Karela Juice", Price: 210, Stock: 45, Category: "Juice",
		Description: "Helps regulate blood sugar and digestion.",
		Benefits:    "Controls sugar levels, improves digestion",
		Usage:       "30ml with water in the morning"},
	{Name: "Moringa Tablets", Price: 160, Stock: 70, Category: "Tablets",
		Description: "Rich in nutrients and antioxidants.",
		Benefits:    "Energy booster, antioxidant, detox",
		Usage:       "2 tablets daily after meals"},
	{Name: "Ayurvedic Hair Oil", Price: 129, Stock: 35, Category: "Oil",
		Description: "Strengthens hair and prevents hair fall.",
		Benefits:    "Hair growth, reduces dandruff",
		Usage:       "Apply twice weekly and massage into scalp"},
	{Name: "Digestive Churna", Price: 99, Stock: 55, Category: "Churna",
		Description: "Natural herbal remedy for indigestion.",
		Benefits:    "Improves digestion, relieves bloating",
		Usage:       "1 tsp after meals with warm water"},
}

var poojas = []models.Pooja{
	{Name: "Ganapathi Homam", Price: 1500, Duration: "1 hour",
		Description:  "Performed to remove obstacles and ensure success in all endeavors.",
		Requirements: []string{"Coconut", "Bananas", "Flowers", "Betel Leaves", "Ghee"}},
	{Name: "Lakshmi Pooja", Price: 2000, Duration: "1.5 hours",
		Description:  "Dedicated to Goddess Lakshmi for wealth and prosperity.",
		Requirements: []string{"Coins", "Turmeric", "Rice", "Lamp", "Milk"}},
	{Name: "Navagraha Pooja", Price: 2500, Duration: "2 hours",
		Description:  "Performed to appease the nine planetary deities.",
		Requirements: []string{"Nine Colored Cloths", "Sesame Seeds", "Ghee Lamps", "Flowers"}},
	{Name: "Saraswati Pooja", Price: 1800, Duration: "1 hour",
		Description:  "For blessings in education and arts.",
		Requirements: []string{"Books", "White Cloth", "Fruits", "Flowers"}},
	{Name: "Satyanarayan Pooja", Price: 2200, Duration: "1.5 hours",
		Description:  "To seek blessings for prosperity and happiness.",
		Requirements: []string{"Tulsi Leaves", "Bananas", "Sweets", "Coconut", "Panchamrit"}},
}

// Products returns the demo catalog: every base product once per batch,
// with prices and stock varied per batch.
func Products() []models.Product {
	out := make([]models.Product, 0, Batches*len(baseProducts))
	for batch := 0; batch < Batches; batch++ {
		for i, p := range baseProducts {
			p.Name = fmt.Sprintf("%s - Batch %d", p.Name, batch+1)
			p.Price += float64((batch*13 + i*7) % 50)
			p.Stock += (batch*11 + i*3) % 25
			p.Images = []string{}
			p.Featured = (batch+i)%4 == 0
			out = append(out, p)
		}
	}
	return out
}

// Poojas returns the demo pooja list.
func Poojas() []models.Pooja {
	out := make([]models.Pooja, len(poojas))
	for i, p := range poojas {
		p.Requirements = append([]string(nil), p.Requirements...)
		out[i] = p
	}
	return out
}

// Result counts what Demo inserted.
type Result struct {
	Products int
	Poojas   int
}

// Demo fills the product and pooja collections when they are empty. A
// collection that already holds data is left alone, so it is safe to run
// on every start.
func Demo(ctx context.Context, st *store.Store, log logrus.FieldLogger) (Result, error) {
	var res Result

	existing, err := st.Products.List(ctx, store.ProductFilter{})
	if err != nil {
		return res, fmt.Errorf("list products: %w", err)
	}
	if len(existing) == 0 {
		for _, p := range Products() {
			if err := st.Products.Create(ctx, &p); err != nil {
				return res, fmt.Errorf("seed product %q: %w", p.Name, err)
			}
			res.Products++
		}
	} else {
		log.WithField("count", len(existing)).Info("products present, skipping product seed")
	}

	offered, err := st.Poojas.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list poojas: %w", err)
	}
	if len(offered) == 0 {
		for _, p := range Poojas() {
			if err := st.Poojas.Create(ctx, &p); err != nil {
				return res, fmt.Errorf("seed pooja %q: %w", p.Name, err)
			}
			res.Poojas++
		}
	} else {
		log.WithField("count", len(offered)).Info("poojas present, skipping pooja seed")
	}

	log.WithFields(logrus.Fields{"products": res.Products, "poojas": res.Poojas}).Info("demo data seeded")
	return res, nil
}
