package docpath

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func jobDoc(t *testing.T) Document {
	t.Helper()
	doc, err := FromValue(bson.M{
		"_id":    "job-1",
		"status": "pending_diagnosis",
		"tasks": bson.A{
			bson.M{"id": "t1", "title": "Brakes", "steps": bson.A{
				bson.M{"id": "s1", "photoBefore": nil, "photoAfter": nil},
				bson.M{"id": "s2", "photoBefore": nil, "photoAfter": nil},
			}},
			bson.M{"id": "t2", "title": "Oil", "steps": bson.A{
				bson.M{"id": "s1", "photoBefore": nil, "photoAfter": nil},
			}},
		},
	})
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	return doc
}

func steps(t *testing.T, doc Document, task int) []any {
	t.Helper()
	tasks := doc["tasks"].([]any)
	return tasks[task].(map[string]any)["steps"].([]any)
}

func TestMatch_NestedArrayRecordsFirstPosition(t *testing.T) {
	doc := jobDoc(t)

	ok, pos, err := Match(doc, bson.M{"_id": "job-1", "tasks.id": "t2"})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}
	if pos["tasks"] != 1 {
		t.Fatalf("expected tasks position 1, got %v", pos)
	}

	ok, _, err = Match(doc, bson.M{"_id": "job-1", "tasks.id": "missing"})
	if err != nil || ok {
		t.Fatalf("expected no match, got ok=%v err=%v", ok, err)
	}

	ok, _, _ = Match(doc, bson.M{"_id": "other"})
	if ok {
		t.Fatalf("expected no match on different id")
	}
}

func TestMatch_EmptyFilterMatchesEverything(t *testing.T) {
	ok, _, err := Match(jobDoc(t), bson.M{})
	if err != nil || !ok {
		t.Fatalf("expected empty filter to match, got ok=%v err=%v", ok, err)
	}
}

func TestMatch_RejectsOperators(t *testing.T) {
	if _, _, err := Match(jobDoc(t), bson.M{"$or": bson.A{}}); err == nil {
		t.Fatalf("expected error on top-level operator")
	}
	if _, _, err := Match(jobDoc(t), bson.M{"status": bson.M{"$ne": "x"}}); err == nil {
		t.Fatalf("expected error on field operator")
	}
}

func TestApply_PushPreservesOrder(t *testing.T) {
	doc := jobDoc(t)

	changed, err := Apply(doc, bson.M{"$push": bson.M{"tasks": bson.M{"id": "t3", "steps": bson.A{}}}}, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !changed {
		t.Fatalf("expected push to modify")
	}

	tasks := doc["tasks"].([]any)
	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.(map[string]any)["id"].(string))
	}
	if !reflect.DeepEqual(ids, []string{"t1", "t2", "t3"}) {
		t.Fatalf("unexpected task order %v", ids)
	}
}

func TestApply_PositionalPushTargetsMatchedTask(t *testing.T) {
	doc := jobDoc(t)
	_, pos, _ := Match(doc, bson.M{"_id": "job-1", "tasks.id": "t2"})

	_, err := Apply(doc, bson.M{"$push": bson.M{"tasks.$.steps": bson.M{"id": "s9"}}}, pos, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := len(steps(t, doc, 0)); n != 2 {
		t.Fatalf("first task should keep 2 steps, has %d", n)
	}
	got := steps(t, doc, 1)
	if len(got) != 2 || got[1].(map[string]any)["id"] != "s9" {
		t.Fatalf("unexpected steps for second task: %v", got)
	}
}

func TestApply_PositionalWithoutMatchFails(t *testing.T) {
	doc := jobDoc(t)
	_, err := Apply(doc, bson.M{"$push": bson.M{"tasks.$.steps": bson.M{"id": "s9"}}}, Positions{}, nil)
	if err == nil {
		t.Fatalf("expected error when the query recorded no position")
	}
}

func TestApply_ArrayFiltersSetSingleField(t *testing.T) {
	doc := jobDoc(t)
	update := bson.M{"$set": bson.M{"tasks.$[task].steps.$[step].photoBefore": "https://x/img.jpg"}}
	filters := []bson.M{{"task.id": "t1"}, {"step.id": "s1"}}

	changed, err := Apply(doc, update, nil, filters)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !changed {
		t.Fatalf("expected modification")
	}

	s1 := steps(t, doc, 0)[0].(map[string]any)
	if s1["photoBefore"] != "https://x/img.jpg" {
		t.Fatalf("photoBefore not set: %v", s1)
	}
	if s1["photoAfter"] != nil {
		t.Fatalf("photoAfter changed: %v", s1)
	}
	if steps(t, doc, 0)[1].(map[string]any)["photoBefore"] != nil {
		t.Fatalf("sibling step changed")
	}
	if steps(t, doc, 1)[0].(map[string]any)["photoBefore"] != nil {
		t.Fatalf("step with the same id in another task changed")
	}
}

func TestApply_ArrayFilterWithoutMatchIsNoop(t *testing.T) {
	doc := jobDoc(t)
	before := Clone(doc)

	changed, err := Apply(doc,
		bson.M{"$set": bson.M{"tasks.$[task].steps.$[step].photoAfter": "u"}},
		nil,
		[]bson.M{{"task.id": "t1"}, {"step.id": "nope"}},
	)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if changed {
		t.Fatalf("expected no modification")
	}
	if !reflect.DeepEqual(doc, before) {
		t.Fatalf("document changed")
	}
}

func TestApply_SetSameValueIsNotAChange(t *testing.T) {
	doc := jobDoc(t)
	changed, err := Apply(doc, bson.M{"$set": bson.M{"status": "pending_diagnosis"}}, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if changed {
		t.Fatalf("expected unchanged")
	}
	changed, _ = Apply(doc, bson.M{"$set": bson.M{"status": "completed"}}, nil, nil)
	if !changed || doc["status"] != "completed" {
		t.Fatalf("expected status change, got %v", doc["status"])
	}
}

func TestApply_PushOntoNullFails(t *testing.T) {
	doc := Document{"_id": "j", "tasks": nil}
	if _, err := Apply(doc, bson.M{"$push": bson.M{"tasks": "x"}}, nil, nil); err == nil {
		t.Fatalf("expected error when pushing onto null")
	}
}

func TestApply_MissingArrayFilterIdentifier(t *testing.T) {
	doc := jobDoc(t)
	_, err := Apply(doc, bson.M{"$set": bson.M{"tasks.$[task].title": "x"}}, nil, nil)
	if err == nil {
		t.Fatalf("expected error for unknown identifier")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	type step struct {
		ID          string  `bson:"id"`
		PhotoBefore *string `bson:"photoBefore"`
	}
	url := "https://x"
	doc, err := FromValue(step{ID: "s1", PhotoBefore: &url})
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	var out step
	if err := Decode(doc, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.ID != "s1" || out.PhotoBefore == nil || *out.PhotoBefore != url {
		t.Fatalf("unexpected decode %+v", out)
	}
}
