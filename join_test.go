package cocol

import "testing"

func TestJoinCounter_LeaveWithNoParticipantsDoesNotFire(t *testing.T) {
	j := newJoinCounter()
	if j.leave() {
		t.Fatalf("leave() on a counter with no participants must not report emptied")
	}
}

func TestJoinCounter_LeaveFiresOnlyOnLastParticipant(t *testing.T) {
	j := newJoinCounter()
	j.join()
	j.join()

	if j.leave() {
		t.Fatalf("leave() must not report emptied while a participant remains")
	}
	if !j.leave() {
		t.Fatalf("leave() must report emptied when the last participant leaves")
	}
}

func TestJoinCounter_LeaveWithoutJoinDoesNotUnderflow(t *testing.T) {
	j := newJoinCounter()
	j.leave()
	if j.outstanding() != 0 {
		t.Fatalf("outstanding() = %d, want 0", j.outstanding())
	}
}

func TestJoinCounter_OutstandingTracksJoinsAndLeaves(t *testing.T) {
	j := newJoinCounter()
	j.join()
	j.join()
	j.join()
	j.leave()
	if j.outstanding() != 2 {
		t.Fatalf("outstanding() = %d, want 2", j.outstanding())
	}
}

func TestJoinCounter_EmptiedFiresExactlyOnce(t *testing.T) {
	j := newJoinCounter()
	j.join()

	count := 0
	if j.leave() {
		count++
	}
	if j.leave() { // extra leave beyond join count must not refire emptied
		count++
	}
	if count != 1 {
		t.Fatalf("leave() reported emptied %d times, want 1", count)
	}
}
