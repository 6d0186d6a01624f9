package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/fitflow/internal/model"
)

type AddMealInput struct {
	Date     string
	MealType string
	Foods    []model.FoodItem
}

// AddMeal appends foods to the date's meal slot, creating the slot when it
// does not exist yet, and refreshes the slot's cached totals.
func AddMeal(db *sql.DB, in AddMealInput) (*model.MealLog, error) {
	date, err := normalizeDate(in.Date)
	if err != nil {
		return nil, err
	}
	mealType, err := parseMealType(in.MealType)
	if err != nil {
		return nil, err
	}
	if len(in.Foods) == 0 {
		return nil, fmt.Errorf("at least one food is required")
	}
	foods := make([]model.FoodItem, 0, len(in.Foods))
	for _, f := range in.Foods {
		f, err := validateFood(f)
		if err != nil {
			return nil, err
		}
		foods = append(foods, f)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO meal_logs(log_date, meal_type) VALUES(?, ?)`, date, string(mealType)); err != nil {
		return nil, fmt.Errorf("ensure meal slot: %w", err)
	}
	var mealID int64
	if err := tx.QueryRow(`SELECT id FROM meal_logs WHERE log_date = ? AND meal_type = ?`, date, string(mealType)).Scan(&mealID); err != nil {
		return nil, fmt.Errorf("lookup meal slot: %w", err)
	}
	var position int
	if err := tx.QueryRow(`SELECT IFNULL(MAX(position), -1) + 1 FROM meal_foods WHERE meal_id = ?`, mealID).Scan(&position); err != nil {
		return nil, fmt.Errorf("next food position: %w", err)
	}
	for i, f := range foods {
		if _, err := tx.Exec(`
INSERT INTO meal_foods(meal_id, position, name, calories, protein_g, carbs_g, fat_g, serving_size)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, mealID, position+i, f.Name, f.Calories, f.ProteinG, f.CarbsG, f.FatG, f.ServingSize); err != nil {
			return nil, fmt.Errorf("insert food %q: %w", f.Name, err)
		}
	}
	if err := refreshMealTotals(tx, mealID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit meal: %w", err)
	}
	return MealByID(db, mealID)
}

// MealTotals sums the nutrition of foods.
func MealTotals(foods []model.FoodItem) (calories, protein, carbs, fat float64) {
	for _, f := range foods {
		calories += f.Calories
		protein += f.ProteinG
		carbs += f.CarbsG
		fat += f.FatG
	}
	return calories, protein, carbs, fat
}

func refreshMealTotals(tx *sql.Tx, mealID int64) error {
	_, err := tx.Exec(`
UPDATE meal_logs SET
  total_calories = (SELECT IFNULL(SUM(calories), 0) FROM meal_foods WHERE meal_id = ?),
  total_protein_g = (SELECT IFNULL(SUM(protein_g), 0) FROM meal_foods WHERE meal_id = ?),
  total_carbs_g = (SELECT IFNULL(SUM(carbs_g), 0) FROM meal_foods WHERE meal_id = ?),
  total_fat_g = (SELECT IFNULL(SUM(fat_g), 0) FROM meal_foods WHERE meal_id = ?),
  updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, mealID, mealID, mealID, mealID, mealID)
	if err != nil {
		return fmt.Errorf("refresh meal totals: %w", err)
	}
	return nil
}

func MealByID(db *sql.DB, id int64) (*model.MealLog, error) {
	meals, err := queryMeals(db, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("meal %d not found", id)
	}
	return &meals[0], nil
}

// ListMeals returns the date's meals in slot order.
func ListMeals(db *sql.DB, date string) ([]model.MealLog, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	return queryMeals(db, `WHERE log_date = ?`, date)
}

// ListMealsRange returns meals within [from, to], oldest first.
func ListMealsRange(db *sql.DB, from, to string) ([]model.MealLog, error) {
	from, err := normalizeDate(from)
	if err != nil {
		return nil, err
	}
	to, err = normalizeDate(to)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("from date must be <= to date")
	}
	return queryMeals(db, `WHERE log_date >= ? AND log_date <= ?`, from, to)
}

func queryMeals(db *sql.DB, where string, args ...any) ([]model.MealLog, error) {
	rows, err := db.Query(`
SELECT id, log_date, meal_type, total_calories, total_protein_g, total_carbs_g, total_fat_g
FROM meal_logs
`+where+`
ORDER BY log_date ASC,
  CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END
`, args...)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	meals := make([]model.MealLog, 0)
	for rows.Next() {
		var (
			m        model.MealLog
			mealType string
		)
		if err := rows.Scan(&m.ID, &m.LogDate, &mealType, &m.TotalCalories, &m.TotalProteinG, &m.TotalCarbsG, &m.TotalFatG); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		m.MealType = model.MealType(mealType)
		m.Foods = []model.FoodItem{}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meals: %w", err)
	}
	rows.Close()

	for i := range meals {
		foods, err := mealFoods(db, meals[i].ID)
		if err != nil {
			return nil, err
		}
		meals[i].Foods = foods
	}
	return meals, nil
}

func mealFoods(db *sql.DB, mealID int64) ([]model.FoodItem, error) {
	rows, err := db.Query(`
SELECT name, calories, protein_g, carbs_g, fat_g, serving_size
FROM meal_foods
WHERE meal_id = ?
ORDER BY position ASC, id ASC
`, mealID)
	if err != nil {
		return nil, fmt.Errorf("list meal foods: %w", err)
	}
	defer rows.Close()
	foods := make([]model.FoodItem, 0)
	for rows.Next() {
		var f model.FoodItem
		if err := rows.Scan(&f.Name, &f.Calories, &f.ProteinG, &f.CarbsG, &f.FatG, &f.ServingSize); err != nil {
			return nil, fmt.Errorf("scan meal food: %w", err)
		}
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meal foods: %w", err)
	}
	return foods, nil
}

// RemoveMealFood drops the food at index (zero-based, display order) from a
// meal. Removing the last food deletes the meal.
func RemoveMealFood(db *sql.DB, mealID int64, index int) (*model.MealLog, error) {
	if index < 0 {
		return nil, fmt.Errorf("food index must be >= 0")
	}
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var foodID int64
	err = tx.QueryRow(`SELECT id FROM meal_foods WHERE meal_id = ? ORDER BY position ASC, id ASC LIMIT 1 OFFSET ?`, mealID, index).Scan(&foodID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("meal %d has no food at index %d", mealID, index)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup meal food: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM meal_foods WHERE id = ?`, foodID); err != nil {
		return nil, fmt.Errorf("delete meal food: %w", err)
	}
	var remaining int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM meal_foods WHERE meal_id = ?`, mealID).Scan(&remaining); err != nil {
		return nil, fmt.Errorf("count meal foods: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.Exec(`DELETE FROM meal_logs WHERE id = ?`, mealID); err != nil {
			return nil, fmt.Errorf("delete empty meal: %w", err)
		}
	} else if err := refreshMealTotals(tx, mealID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit meal food removal: %w", err)
	}
	if remaining == 0 {
		return nil, nil
	}
	return MealByID(db, mealID)
}

func DeleteMeal(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM meal_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete meal rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("meal %d not found", id)
	}
	return nil
}

func parseMealType(value string) (model.MealType, error) {
	v := model.MealType(normalizeName(value))
	if v == "snacks" {
		v = model.MealSnack
	}
	for _, t := range model.MealTypes {
		if v == t {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown meal type %q (expected breakfast, lunch, dinner or snack)", value)
}

func validateFood(f model.FoodItem) (model.FoodItem, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.ServingSize = strings.TrimSpace(f.ServingSize)
	if f.Name == "" {
		return f, fmt.Errorf("food name is required")
	}
	if err := validateNonNegativeFloat("calories", f.Calories); err != nil {
		return f, err
	}
	if err := validateNonNegativeFloat("protein", f.ProteinG); err != nil {
		return f, err
	}
	if err := validateNonNegativeFloat("carbs", f.CarbsG); err != nil {
		return f, err
	}
	if err := validateNonNegativeFloat("fat", f.FatG); err != nil {
		return f, err
	}
	return f, nil
}

// ParseFoodSpec parses "name|calories|protein|carbs|fat|serving". Trailing
// fields may be omitted and default to zero or empty.
func ParseFoodSpec(spec string) (model.FoodItem, error) {
	parts := strings.Split(spec, "|")
	if len(parts) > 6 {
		return model.FoodItem{}, fmt.Errorf("invalid food %q (expected name|calories|protein|carbs|fat|serving)", spec)
	}
	f := model.FoodItem{Name: strings.TrimSpace(parts[0])}
	numbers := []*float64{&f.Calories, &f.ProteinG, &f.CarbsG, &f.FatG}
	for i, dst := range numbers {
		if i+1 >= len(parts) {
			break
		}
		raw := strings.TrimSpace(parts[i+1])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.FoodItem{}, fmt.Errorf("invalid number %q in food %q", raw, spec)
		}
		*dst = v
	}
	if len(parts) == 6 {
		f.ServingSize = strings.TrimSpace(parts[5])
	}
	return validateFood(f)
}
