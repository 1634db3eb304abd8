package catalog

import "storefront/storefront-svc/internal/domain"

func seedRestaurants() []domain.Restaurant {
	return []domain.Restaurant{
		{
			ID: 1, Name: "Pizza Palace",
			Description:  "Authentic Italian pizzas made with fresh ingredients and traditional recipes",
			Category:     "Italian", Cuisine: "Italian", Rating: 4.8, Reviews: 124,
			DeliveryTime: "20-30 mins", MinOrder: 15.00, IsOpen: true,
			Dishes: []domain.Dish{
				{ID: 1, Name: "Margherita Pizza", Description: "Fresh tomatoes, mozzarella cheese, basil leaves, and olive oil on a crispy thin crust", Price: 18.99, Rating: 4.8, Reviews: 124, CookTime: "15 mins", IsVegetarian: true},
				{ID: 2, Name: "Pepperoni Supreme", Description: "Classic pepperoni with melted cheese and our signature tomato sauce", Price: 22.50, Rating: 4.7, Reviews: 89, CookTime: "18 mins", IsSpicy: true},
				{ID: 3, Name: "Quattro Stagioni", Description: "Four seasons pizza with mushrooms, artichokes, ham, and olives", Price: 24.99, Rating: 4.9, Reviews: 67, CookTime: "20 mins"},
			},
		},
		{
			ID: 2, Name: "Spice Garden",
			Description:  "Authentic Indian cuisine with traditional spices and modern presentation",
			Category:     "Indian", Cuisine: "Indian", Rating: 4.9, Reviews: 89,
			DeliveryTime: "25-35 mins", MinOrder: 20.00, IsOpen: true,
			Dishes: []domain.Dish{
				{ID: 4, Name: "Chicken Tikka Masala", Description: "Tender chicken pieces in a rich, creamy tomato-based curry sauce with aromatic spices", Price: 22.50, Rating: 4.9, Reviews: 89, CookTime: "25 mins", IsSpicy: true},
				{ID: 5, Name: "Paneer Butter Masala", Description: "Cottage cheese cubes in a rich, creamy tomato-based gravy with aromatic spices", Price: 19.99, Rating: 4.7, Reviews: 156, CookTime: "20 mins", IsVegetarian: true},
				{ID: 6, Name: "Biryani Deluxe", Description: "Fragrant basmati rice cooked with tender meat and aromatic spices", Price: 26.99, Rating: 4.8, Reviews: 92, CookTime: "30 mins", IsSpicy: true},
			},
		},
		{
			ID: 3, Name: "Fresh & Healthy",
			Description:  "Nutritious and delicious salads, wraps, and healthy bowls",
			Category:     "Healthy", Cuisine: "International", Rating: 4.6, Reviews: 67,
			DeliveryTime: "15-25 mins", MinOrder: 12.00, IsOpen: true,
			Dishes: []domain.Dish{
				{ID: 7, Name: "Caesar Salad", Description: "Crisp romaine lettuce, parmesan cheese, croutons, and our signature Caesar dressing", Price: 14.75, Rating: 4.6, Reviews: 67, CookTime: "10 mins", IsVegetarian: true},
				{ID: 8, Name: "Greek Salad", Description: "Fresh vegetables, feta cheese, olives, and olive oil dressing", Price: 16.50, Rating: 4.5, Reviews: 45, CookTime: "8 mins", IsVegetarian: true},
				{ID: 9, Name: "Quinoa Bowl", Description: "Nutritious quinoa with roasted vegetables and tahini dressing", Price: 18.99, Rating: 4.7, Reviews: 78, CookTime: "12 mins", IsVegetarian: true},
			},
		},
		{
			ID: 4, Name: "Burger House",
			Description:  "Juicy burgers, crispy fries, and classic American comfort food",
			Category:     "American", Cuisine: "American", Rating: 4.7, Reviews: 156,
			DeliveryTime: "20-30 mins", MinOrder: 18.00, IsOpen: true,
			Dishes: []domain.Dish{
				{ID: 10, Name: "Beef Burger Deluxe", Description: "Juicy beef patty with lettuce, tomato, cheese, pickles, and our special sauce on a brioche bun", Price: 19.99, Rating: 4.7, Reviews: 156, CookTime: "15 mins"},
				{ID: 11, Name: "Chicken Burger", Description: "Grilled chicken breast with fresh vegetables and special sauce", Price: 17.50, Rating: 4.6, Reviews: 89, CookTime: "12 mins"},
				{ID: 12, Name: "Veggie Burger", Description: "Plant-based patty with fresh vegetables and vegan cheese", Price: 16.99, Rating: 4.5, Reviews: 67, CookTime: "10 mins", IsVegetarian: true},
			},
		},
		{
			ID: 5, Name: "Ocean Delights",
			Description:  "Fresh seafood and sushi prepared with premium ingredients",
			Category:     "Seafood", Cuisine: "Japanese", Rating: 4.9, Reviews: 92,
			DeliveryTime: "25-35 mins", MinOrder: 25.00, IsOpen: true,
			Dishes: []domain.Dish{
				{ID: 13, Name: "Salmon Teriyaki", Description: "Grilled salmon fillet glazed with teriyaki sauce, served with steamed vegetables and rice", Price: 26.99, Rating: 4.9, Reviews: 92, CookTime: "20 mins"},
				{ID: 14, Name: "Tuna Sushi Roll", Description: "Fresh tuna with avocado, cucumber, and rice wrapped in nori", Price: 24.50, Rating: 4.8, Reviews: 78, CookTime: "15 mins"},
				{ID: 15, Name: "Shrimp Tempura", Description: "Crispy tempura shrimp served with dipping sauce and rice", Price: 28.99, Rating: 4.7, Reviews: 65, CookTime: "18 mins"},
			},
		},
		{
			ID: 6, Name: "Sweet Dreams",
			Description:  "Artisanal desserts and pastries made with premium ingredients",
			Category:     "Dessert", Cuisine: "International", Rating: 4.8, Reviews: 203,
			DeliveryTime: "15-25 mins", MinOrder: 10.00, IsOpen: true,
			Dishes: []domain.Dish{
				{ID: 16, Name: "Chocolate Lava Cake", Description: "Warm chocolate cake with a molten chocolate center, served with vanilla ice cream", Price: 12.99, Rating: 4.8, Reviews: 203, CookTime: "12 mins", IsVegetarian: true},
				{ID: 17, Name: "Tiramisu", Description: "Classic Italian dessert with coffee-soaked ladyfingers and mascarpone cream", Price: 14.50, Rating: 4.9, Reviews: 156, CookTime: "8 mins", IsVegetarian: true},
				{ID: 18, Name: "Cheesecake", Description: "Creamy New York style cheesecake with berry compote", Price: 13.99, Rating: 4.7, Reviews: 89, CookTime: "10 mins", IsVegetarian: true},
			},
		},
	}
}
